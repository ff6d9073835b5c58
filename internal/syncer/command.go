package syncer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/domain/meeting"
)

// Command runs an arbitrary shell command in the export dir.
type Command struct {
	Command string
	Shell   string // defaults to sh
}

// Sync runs the command. The run's counts are passed in the environment as
// GRANOLA_EXPORT_NEW_COUNT, GRANOLA_EXPORT_NEW_IDS and GRANOLA_EXPORT_TOTAL.
func (c *Command) Sync(ctx context.Context, req meeting.SyncRequest) meeting.SyncResult {
	if strings.TrimSpace(c.Command) == "" {
		return meeting.SyncResult{Method: config.SyncMethodCommand, Status: meeting.SyncFailed, Message: "sync_command not configured"}
	}

	shell := c.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", c.Command)
	cmd.Dir = req.ExportDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GRANOLA_EXPORT_NEW_COUNT=%d", len(req.NewIDs)),
		"GRANOLA_EXPORT_NEW_IDS="+strings.Join(req.NewIDs, ","),
		fmt.Sprintf("GRANOLA_EXPORT_TOTAL=%d", req.TotalInIndex),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		} else {
			msg = fmt.Sprintf("%v: %s", err, msg)
		}
		return meeting.SyncResult{Method: config.SyncMethodCommand, Status: meeting.SyncFailed, Message: msg}
	}
	return meeting.SyncResult{Method: config.SyncMethodCommand, Status: meeting.SyncPushed, Message: "custom command succeeded"}
}
