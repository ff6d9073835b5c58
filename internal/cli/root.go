package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/app"
	"github.com/rileycx/granola-export/internal/version"
)

// Dependencies is filled in by main; App is built once flags are parsed.
type Dependencies struct {
	App    *app.App
	Config *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var cachePath, exportDir, logLevel string

	rootCmd := &cobra.Command{
		Use:   "granola-export",
		Short: "Export Granola meeting transcripts to AI-queryable JSON",
		Long: "Exports meetings from the local Granola cache into one JSON file per meeting plus an index.json,\n" +
			"skipping meetings that were already exported. Running without a subcommand is the same as 'export'.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cachePath != "" {
				deps.Config.CachePath = config.ExpandTilde(cachePath)
			}
			if exportDir != "" {
				deps.Config.SetExportDir(exportDir)
			}
			if logLevel != "" {
				deps.Config.LogLevel = logLevel
			}
			if err := deps.Config.Validate(); err != nil {
				return err
			}

			application, err := app.New(deps.Config, os.Stderr)
			if err != nil {
				return err
			}
			deps.App = application
			return nil
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "Path to the Granola cache file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&exportDir, "export-dir", "", "Export directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Console log level: debug, info, warn, error")

	exportCmd := NewExportCmd(deps)
	rootCmd.RunE = exportCmd.RunE
	rootCmd.Flags().AddFlagSet(exportCmd.Flags())

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))

	return rootCmd
}
