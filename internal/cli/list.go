package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rileycx/granola-export/internal/domain/meeting/index"
	"github.com/rileycx/granola-export/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exported meetings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			store := index.NewStore(deps.Config.ExportDir, deps.App.Logger.Logger)
			if err := store.Load(); err != nil {
				formatter.Warning("Index is corrupt; run 'granola-export export' to rebuild it")
			}

			entries := store.Entries()
			if asJSON {
				return formatter.JSON(entries)
			}

			if len(entries) == 0 {
				formatter.Info("No meetings exported yet")
				return nil
			}

			formatter.MeetingListHeader(len(entries))
			for _, e := range entries {
				formatter.MeetingListItem(e)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print index entries as JSON")

	return cmd
}
