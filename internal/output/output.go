package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rileycx/granola-export/internal/domain/meeting"
)

// Formatter renders human-readable output. The export summary lines
// ("  NEW: <file>", "  Total in index: N") are scraped by wrapper scripts
// and notification glue and must keep their exact wording.
type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) LoadingCache() {
	fmt.Fprintf(f.w, "Loading Granola cache...\n")
}

// RunSummary prints the textual summary of an export run.
func (f *Formatter) RunSummary(s *meeting.RunSummary, cachePath string) {
	switch s.Status {
	case meeting.StatusCacheNotFound:
		fmt.Fprintf(f.w, "Error: Granola cache not found.\n")
		fmt.Fprintf(f.w, "Expected location: %s\n", cachePath)
		fmt.Fprintf(f.w, "Make sure Granola is installed and you've had at least one meeting.\n")
		fmt.Fprintf(f.w, "  Total in index: %d\n", s.TotalInIndex)
		return
	case meeting.StatusFailed:
		fmt.Fprintf(f.w, "Export failed: %s\n", s.Error)
		fmt.Fprintf(f.w, "  Total in index: %d\n", s.TotalInIndex)
		return
	}

	fmt.Fprintf(f.w, "Found %d documents and %d transcripts in cache\n", s.TotalDocuments, s.TotalTranscripts)
	for _, file := range s.NewFiles {
		fmt.Fprintf(f.w, "  NEW: %s\n", file)
	}
	for _, w := range s.Warnings {
		f.Warning(describeWarning(w))
	}

	fmt.Fprintf(f.w, "\nExport complete!\n")
	fmt.Fprintf(f.w, "  New: %d meetings exported\n", len(s.NewIDs))
	fmt.Fprintf(f.w, "  Already exported: %d\n", s.AlreadyExported)
	fmt.Fprintf(f.w, "  No transcript: %d\n", s.SkippedNoTranscript)
	fmt.Fprintf(f.w, "  Total in index: %d\n", s.TotalInIndex)

	if s.Sync != nil && s.Sync.Status != meeting.SyncSkipped {
		fmt.Fprintf(f.w, "Sync %s: %s\n", s.Sync.Status, s.Sync.Message)
	}
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) Watching(path string, debounce time.Duration) {
	fmt.Fprintf(f.w, "👀 Watching %s (debounce %s, Ctrl+C to stop)\n", path, formatDuration(debounce))
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) MeetingListHeader(count int) {
	fmt.Fprintf(f.w, "📁 Meetings (%d):\n\n", count)
}

func (f *Formatter) MeetingListItem(e meeting.IndexEntry) {
	date := e.Date
	if len(date) >= len("2006-01-02") {
		date = date[:len("2006-01-02")]
	}
	status := ""
	if e.HasSummary {
		status = " 📝"
	}
	fmt.Fprintf(f.w, "  %s  %s%s\n      %s\n", date, e.Title, status, e.Filename)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func describeWarning(w meeting.Warning) string {
	if w.MeetingID == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s %s: %s", w.Kind, w.MeetingID, w.Message)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
