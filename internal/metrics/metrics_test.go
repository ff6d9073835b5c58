package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileycx/granola-export/internal/domain/meeting"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(&meeting.RunSummary{
		Status:              meeting.StatusOK,
		NewIDs:              []string{"a", "b"},
		TotalInIndex:        5,
		AlreadyExported:     3,
		SkippedNoTranscript: 1,
		Warnings: []meeting.Warning{
			{Kind: meeting.WarningNormalization},
			{Kind: meeting.WarningNormalization},
			{Kind: meeting.WarningWrite},
		},
		Sync:     &meeting.SyncResult{Status: meeting.SyncPushed},
		Duration: 1500 * time.Millisecond,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MeetingsNew))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("already_exported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("no_transcript")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Warnings.WithLabelValues("normalization")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Syncs.WithLabelValues("pushed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.IndexMeetings))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.RunDuration))
}

func TestObserveRun_FailedKeepsIndexGauge(t *testing.T) {
	m := New()
	m.ObserveRun(&meeting.RunSummary{Status: meeting.StatusOK, TotalInIndex: 4})
	m.ObserveRun(&meeting.RunSummary{Status: meeting.StatusFailed})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.IndexMeetings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))
}

func TestObserveRun_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRun(&meeting.RunSummary{}) })
	assert.NotPanics(t, func() { New().ObserveRun(nil) })
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun(&meeting.RunSummary{Status: meeting.StatusNothingNew, TotalInIndex: 2})

	path := filepath.Join(t.TempDir(), "textfile", "granola_export.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `granola_export_runs_total{status="nothing_new"} 1`)
	assert.Contains(t, string(data), "granola_export_index_meetings 2")
}
