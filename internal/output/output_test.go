package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rileycx/granola-export/internal/domain/meeting"
)

func TestRunSummary_OK(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).RunSummary(&meeting.RunSummary{
		Status:           meeting.StatusOK,
		NewIDs:           []string{"a"},
		NewFiles:         []string{"2024-03-01_alpha_aaaaaaaa.json"},
		TotalInIndex:     4,
		TotalDocuments:   5,
		TotalTranscripts: 4,
		AlreadyExported:  3,
		Warnings:         []meeting.Warning{{MeetingID: "a", Kind: meeting.WarningNormalization, Message: "missing people"}},
		Sync:             &meeting.SyncResult{Status: meeting.SyncPushed, Message: "pushed to GitHub (me/meetings)"},
	}, "/cache.json")

	out := buf.String()
	assert.Contains(t, out, "Found 5 documents and 4 transcripts in cache\n")
	assert.Contains(t, out, "  NEW: 2024-03-01_alpha_aaaaaaaa.json\n")
	assert.Contains(t, out, "normalization a: missing people")
	assert.Contains(t, out, "  New: 1 meetings exported\n")
	assert.Contains(t, out, "  Already exported: 3\n")
	assert.Contains(t, out, "  Total in index: 4\n")
	assert.Contains(t, out, "Sync pushed: pushed to GitHub (me/meetings)\n")
}

func TestRunSummary_SkippedSyncIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).RunSummary(&meeting.RunSummary{
		Status: meeting.StatusNothingNew,
		Sync:   &meeting.SyncResult{Status: meeting.SyncSkipped, Message: "no new exports"},
	}, "/cache.json")

	assert.NotContains(t, buf.String(), "Sync")
	assert.Contains(t, buf.String(), "  Total in index: 0\n")
}

func TestRunSummary_CacheNotFound(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).RunSummary(&meeting.RunSummary{Status: meeting.StatusCacheNotFound, TotalInIndex: 2}, "/cache.json")

	assert.Contains(t, buf.String(), "Error: Granola cache not found.\n")
	assert.Contains(t, buf.String(), "Expected location: /cache.json\n")
	assert.Contains(t, buf.String(), "  Total in index: 2\n")
	assert.NotContains(t, buf.String(), "Export complete")
}

func TestRunSummary_Failed(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).RunSummary(&meeting.RunSummary{Status: meeting.StatusFailed, Error: "cache corrupt"}, "/cache.json")

	assert.Contains(t, buf.String(), "Export failed: cache corrupt\n")
	assert.NotContains(t, buf.String(), "Export complete")
}

func TestMeetingListItem(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).MeetingListItem(meeting.IndexEntry{
		Title:      "Alpha",
		Date:       "2024-03-01T10:00:00Z",
		Filename:   "meetings/a.json",
		HasSummary: true,
	})
	assert.Equal(t, "  2024-03-01  Alpha 📝\n      meetings/a.json\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "1m30s", formatDuration(90*time.Second))
	assert.Equal(t, "2h00m01s", formatDuration(2*time.Hour+time.Second))
}
