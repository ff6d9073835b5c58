package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileycx/granola-export/internal/output"
	"github.com/rileycx/granola-export/internal/watch"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var debounce time.Duration
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Export now and again whenever the Granola cache changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			formatter := output.NewFormatter(os.Stdout)
			formatter.Watching(deps.Config.CachePath, debounce)

			w := &watch.Watcher{
				Path:     deps.Config.CachePath,
				Debounce: debounce,
				Logger:   deps.App.Logger.Named("watch"),
			}
			return w.Run(ctx, func(ctx context.Context) {
				if err := runExport(ctx, deps, flags, os.Stdout); err != nil {
					formatter.Error(err.Error())
				}
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period after a cache change before exporting")
	cmd.Flags().BoolVar(&flags.NoSync, "no-sync", false, "Skip the post-export sync")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after each run")

	return cmd
}
