package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/domain/meeting/cache"
	"github.com/rileycx/granola-export/internal/domain/meeting/index"
	"github.com/rileycx/granola-export/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the cache, export directory, index and sync setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			cfg := deps.Config
			ok := true

			if cfg.Path != "" {
				f.SetupCheck("Config", true, cfg.Path)
			} else {
				f.SetupCheck("Config", true, "no config file, using defaults")
			}

			snap, err := (&cache.Reader{Path: cfg.CachePath}).Read()
			switch {
			case errors.Is(err, cache.ErrCacheUnavailable):
				f.SetupCheck("Granola cache", false, "not found at "+cfg.CachePath+". Is Granola installed?")
				ok = false
			case err != nil:
				f.SetupCheck("Granola cache", false, err.Error())
				ok = false
			default:
				f.SetupCheck("Granola cache", true, fmt.Sprintf("%d documents, %d transcripts", snap.TotalDocuments, snap.TotalTranscripts))
			}

			if err := checkWritable(cfg.ExportDir); err != nil {
				f.SetupCheck("Export directory", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Export directory", true, cfg.ExportDir)
			}

			store := index.NewStore(cfg.ExportDir, nil)
			if err := store.Load(); err != nil {
				f.SetupCheck("Index", false, err.Error()+" (next export starts fresh)")
				ok = false
			} else {
				total := store.Len()
				if orphans := store.Prune(cfg.ExportDir); len(orphans) > 0 {
					f.SetupCheck("Index", false, fmt.Sprintf("%d meetings, %d missing files (next export re-exports them)", total, len(orphans)))
					ok = false
				} else {
					f.SetupCheck("Index", true, fmt.Sprintf("%d meetings", total))
				}
			}

			if !cfg.Sync.Enabled {
				f.SetupCheck("Sync", true, "disabled")
			} else if err := cfg.Sync.Validate(); err != nil {
				f.SetupCheck("Sync", false, err.Error())
				ok = false
			} else if cfg.Sync.Method == config.SyncMethodGitHub {
				if _, url, err := deps.App.Sync.GitHub.Check(cfg.ExportDir); err != nil {
					f.SetupCheck("Sync (github)", false, err.Error())
					ok = false
				} else {
					f.SetupCheck("Sync (github)", true, fmt.Sprintf("origin %s, branch %s", url, cfg.Sync.GitHubBranch))
				}
			} else {
				f.SetupCheck("Sync (command)", true, cfg.Sync.Command)
			}

			if ok {
				f.Success("\nAll checks passed.")
			} else {
				f.Warning("\nSome checks failed.")
			}
			return nil
		},
	}
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	return os.Remove(name)
}
