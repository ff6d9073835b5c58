package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rileycx/granola-export/internal/domain/meeting/usecases"
	"github.com/rileycx/granola-export/internal/output"
)

type exportFlags struct {
	JSON        bool
	NoSync      bool
	MetricsFile string
}

func NewExportCmd(deps *Dependencies) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export new meetings and update the index",
		Long: "Reads the Granola cache, writes a JSON file for every meeting not yet in the index,\n" +
			"updates index.json, and runs the configured sync if enabled.\n" +
			"Exits non-zero only when the cache is unreadable or the index cannot be written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), deps, flags, os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVar(&flags.NoSync, "no-sync", false, "Skip the post-export sync")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile (overrides config)")

	return cmd
}

func runExport(ctx context.Context, deps *Dependencies, flags exportFlags, w io.Writer) error {
	formatter := output.NewFormatter(w)
	if !flags.JSON {
		formatter.LoadingCache()
	}

	summary, err := deps.App.Export.Execute(ctx, &usecases.ExportOptions{
		CachePath: deps.Config.CachePath,
		ExportDir: deps.Config.ExportDir,
		SkipSync:  flags.NoSync,
	})

	if flags.JSON {
		if jerr := formatter.JSON(summary); jerr != nil && err == nil {
			err = jerr
		}
	} else {
		formatter.RunSummary(summary, deps.Config.CachePath)
	}

	metricsFile := flags.MetricsFile
	if metricsFile == "" {
		metricsFile = deps.Config.MetricsFile
	}
	if metricsFile != "" {
		if werr := deps.App.Metrics.WriteTextfile(metricsFile); werr != nil {
			deps.App.Logger.Warn("writing metrics", zap.String("path", metricsFile), zap.Error(werr))
		}
	}

	return err
}
