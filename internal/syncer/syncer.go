// Package syncer implements the post-export sync hook. A Dispatcher decides
// from the sync options whether and how to sync; the GitHub and Command
// methods do the work. Results are reported, never returned as errors.
package syncer

import (
	"context"

	"go.uber.org/zap"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/domain/meeting"
)

// Method performs one sync against the export dir.
type Method interface {
	Sync(ctx context.Context, req meeting.SyncRequest) meeting.SyncResult
}

// Dispatcher applies the sync options and delegates to the configured method.
type Dispatcher struct {
	Config  config.SyncConfig
	GitHub  *GitHub
	Command *Command
	Logger  *zap.Logger
}

// NewDispatcher builds a dispatcher with both methods configured from cfg.
func NewDispatcher(cfg config.SyncConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		Config: cfg,
		GitHub: &GitHub{
			Repo:   cfg.GitHubRepo,
			Branch: cfg.GitHubBranch,
			Token:  cfg.GitHubToken,
		},
		Command: &Command{Command: cfg.Command},
		Logger:  logger,
	}
}

// Sync implements the exporter's SyncHook.
func (d *Dispatcher) Sync(ctx context.Context, req meeting.SyncRequest) meeting.SyncResult {
	if !d.Config.Enabled {
		return meeting.SyncResult{Status: meeting.SyncSkipped, Message: "sync disabled"}
	}
	if err := d.Config.Validate(); err != nil {
		return meeting.SyncResult{Method: d.Config.Method, Status: meeting.SyncFailed, Message: err.Error()}
	}

	noNew := len(req.NewIDs) == 0
	switch d.Config.Method {
	case config.SyncMethodGitHub:
		if noNew && !d.Config.OnNoNew {
			dirty, err := d.GitHub.HasChanges(req.ExportDir)
			if err != nil {
				d.Logger.Debug("checking export dir for changes", zap.Error(err))
			}
			if !dirty {
				return skippedNoNew(d.Config.Method)
			}
		}
		return d.GitHub.Sync(ctx, req)
	case config.SyncMethodCommand:
		if noNew && !d.Config.OnNoNew {
			return skippedNoNew(d.Config.Method)
		}
		return d.Command.Sync(ctx, req)
	}

	// Unreachable while validation restricts Method.
	return meeting.SyncResult{Method: d.Config.Method, Status: meeting.SyncFailed, Message: "unknown sync method"}
}

func skippedNoNew(method string) meeting.SyncResult {
	return meeting.SyncResult{Method: method, Status: meeting.SyncSkipped, Message: "no new exports"}
}
