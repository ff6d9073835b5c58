package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rileycx/granola-export/internal/atomicfile"
	"github.com/rileycx/granola-export/internal/domain/meeting"
	"github.com/rileycx/granola-export/internal/domain/meeting/cache"
	"github.com/rileycx/granola-export/internal/domain/meeting/index"
	"github.com/rileycx/granola-export/internal/metrics"
)

// SyncHook is notified after a successful run. Its result is only logged
// and recorded; it never changes the outcome of the export.
type SyncHook interface {
	Sync(ctx context.Context, req meeting.SyncRequest) meeting.SyncResult
}

// Export incrementally exports cached meetings that are not yet indexed.
type Export struct {
	Logger            *zap.Logger
	Metrics           *metrics.Metrics // optional
	Hook              SyncHook         // optional
	RequireTranscript bool
	Now               func() time.Time
}

// ExportOptions holds the paths for one run.
type ExportOptions struct {
	CachePath string
	ExportDir string
	SkipSync  bool
}

// Execute runs one export. Fatal failures (cache unreadable or corrupt,
// index not persisted) return a summary with StatusFailed together with the
// error; a missing cache is reported via StatusCacheNotFound and a nil error.
func (e *Export) Execute(ctx context.Context, opts *ExportOptions) (*meeting.RunSummary, error) {
	started := e.now()
	summary := &meeting.RunSummary{
		RunID:    uuid.NewString(),
		NewIDs:   []string{},
		NewFiles: []string{},
		Warnings: []meeting.Warning{},
	}
	log := e.logger().With(zap.String("run_id", summary.RunID))
	log.Info("export run started",
		zap.String("cache", opts.CachePath),
		zap.String("export_dir", opts.ExportDir))

	defer func() {
		summary.Duration = e.now().Sub(started)
		e.Metrics.ObserveRun(summary)
		log.Info("export run finished",
			zap.String("status", string(summary.Status)),
			zap.Int("new", len(summary.NewIDs)),
			zap.Int("total_in_index", summary.TotalInIndex),
			zap.Int("warnings", len(summary.Warnings)))
	}()

	fail := func(err error) (*meeting.RunSummary, error) {
		summary.Status = meeting.StatusFailed
		summary.Error = err.Error()
		log.Error("export run failed", zap.Error(err))
		return summary, err
	}

	store := index.NewStore(opts.ExportDir, log)
	if err := store.Load(); err != nil {
		summary.Warnings = append(summary.Warnings, meeting.Warning{
			Kind:    meeting.WarningIndex,
			Message: fmt.Sprintf("%v; treating as no prior exports", err),
		})
	}
	summary.TotalInIndex = store.Len()

	snap, err := (&cache.Reader{Path: opts.CachePath}).Read()
	if errors.Is(err, cache.ErrCacheUnavailable) {
		summary.Status = meeting.StatusCacheNotFound
		log.Warn("cache not found", zap.String("path", opts.CachePath))
		return summary, nil
	}
	if err != nil {
		return fail(err)
	}
	summary.TotalDocuments = snap.TotalDocuments
	summary.TotalTranscripts = snap.TotalTranscripts

	dirty := false
	for _, orphan := range store.Prune(opts.ExportDir) {
		dirty = true
		e.warn(log, summary, meeting.Warning{
			MeetingID: orphan.ID,
			Kind:      meeting.WarningIndex,
			Message:   fmt.Sprintf("indexed file %s is missing; meeting will be re-exported", orphan.Filename),
		})
	}

	meetingsDir := filepath.Join(opts.ExportDir, meeting.MeetingsDir)
	if err := os.MkdirAll(meetingsDir, 0o755); err != nil {
		return fail(fmt.Errorf("creating meetings dir: %w", err))
	}

	var staged []meeting.IndexEntry
	for _, raw := range snap.Meetings {
		if raw.ID == "" {
			e.warn(log, summary, meeting.Warning{Kind: meeting.WarningNormalization, Message: "record without id skipped"})
			continue
		}
		if store.Contains(raw.ID) {
			summary.AlreadyExported++
			continue
		}

		entry, file, ok := e.exportOne(log, summary, meetingsDir, raw)
		if !ok {
			continue
		}
		staged = append(staged, entry)
		summary.NewIDs = append(summary.NewIDs, entry.ID)
		summary.NewFiles = append(summary.NewFiles, file)
	}

	if len(staged) > 0 || dirty {
		for _, entry := range staged {
			store.Upsert(entry)
		}
		store.SetTotals(snap.TotalDocuments, snap.TotalTranscripts)
		if err := store.Persist(e.now()); err != nil {
			summary.NewIDs = []string{}
			summary.NewFiles = []string{}
			return fail(err)
		}
	}
	summary.TotalInIndex = store.Len()

	summary.Status = meeting.StatusNothingNew
	if len(summary.NewIDs) > 0 {
		summary.Status = meeting.StatusOK
	}

	if e.Hook != nil && !opts.SkipSync {
		result := e.Hook.Sync(ctx, meeting.SyncRequest{
			ExportDir:    opts.ExportDir,
			NewIDs:       summary.NewIDs,
			TotalInIndex: summary.TotalInIndex,
		})
		summary.Sync = &result
		fields := []zap.Field{
			zap.String("method", result.Method),
			zap.String("status", string(result.Status)),
			zap.String("detail", result.Message),
		}
		if result.Status == meeting.SyncFailed {
			log.Warn("sync failed", fields...)
		} else {
			log.Info("sync finished", fields...)
		}
	}

	return summary, nil
}

// exportOne normalizes and writes a single meeting. Failures are recorded as
// warnings and leave the meeting unindexed so the next run retries it.
func (e *Export) exportOne(log *zap.Logger, summary *meeting.RunSummary, meetingsDir string, raw meeting.RawMeeting) (meeting.IndexEntry, string, bool) {
	m, warnings := meeting.Normalize(raw)
	if e.RequireTranscript && len(m.TranscriptSegments) == 0 {
		summary.SkippedNoTranscript++
		return meeting.IndexEntry{}, "", false
	}
	for _, w := range warnings {
		e.warn(log, summary, w)
	}

	filename := meeting.Filename(m.Date, m.Title, m.ID)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		e.warn(log, summary, meeting.Warning{
			MeetingID: m.ID,
			Kind:      meeting.WarningNormalization,
			Message:   fmt.Sprintf("encoding meeting: %v", err),
		})
		return meeting.IndexEntry{}, "", false
	}
	if err := atomicfile.Write(filepath.Join(meetingsDir, filename), append(data, '\n'), 0o644); err != nil {
		e.warn(log, summary, meeting.Warning{
			MeetingID: m.ID,
			Kind:      meeting.WarningWrite,
			Message:   fmt.Sprintf("writing %s: %v", filename, err),
		})
		return meeting.IndexEntry{}, "", false
	}

	log.Info("exported meeting", zap.String("meeting_id", m.ID), zap.String("file", filename))
	return meeting.IndexEntry{
		ID:           m.ID,
		Title:        m.Title,
		Date:         m.Date,
		Filename:     meeting.RelPath(filename),
		People:       m.People,
		HasSummary:   m.Summary != "",
		SegmentCount: len(m.TranscriptSegments),
	}, filename, true
}

func (e *Export) warn(log *zap.Logger, summary *meeting.RunSummary, w meeting.Warning) {
	summary.Warnings = append(summary.Warnings, w)
	log.Warn(w.Message, zap.String("meeting_id", w.MeetingID), zap.String("kind", string(w.Kind)))
}

func (e *Export) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Export) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
