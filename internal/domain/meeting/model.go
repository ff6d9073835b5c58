package meeting

import (
	"encoding/json"
	"time"
)

// RawMeeting is one meeting as found in the source cache. The document and
// transcript payloads are kept verbatim; the Normalizer decides what to read.
type RawMeeting struct {
	ID         string
	Document   json.RawMessage
	Transcript json.RawMessage // nil when the cache has no transcript for ID
}

// Segment is one timestamped piece of the conversation. Start and End are
// millisecond offsets from the meeting start.
type Segment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

// ExportedMeeting is the canonical per-meeting file content.
type ExportedMeeting struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Date               string          `json:"date"`
	People             []string        `json:"people"`
	Summary            string          `json:"summary"`
	Overview           string          `json:"overview"`
	NotesMarkdown      string          `json:"notes_markdown"`
	NotesPlain         string          `json:"notes_plain"`
	Chapters           json.RawMessage `json:"chapters,omitempty"`
	TranscriptSegments []Segment       `json:"transcript_segments"`
	TranscriptText     string          `json:"transcript_text"`
}

// IndexEntry is the index's view of one exported meeting.
type IndexEntry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Filename     string   `json:"filename"` // relative to the export dir
	People       []string `json:"people"`
	HasSummary   bool     `json:"has_summary"`
	SegmentCount int      `json:"segment_count"`
}

// IndexDocument is the persisted master index.
type IndexDocument struct {
	ExportedAt       time.Time    `json:"exported_at"`
	TotalDocuments   int          `json:"total_documents"`
	TotalTranscripts int          `json:"total_transcripts"`
	ExportedCount    int          `json:"exported_count"`
	Meetings         []IndexEntry `json:"meetings"`
}

// Status is the outcome of an export run.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNothingNew    Status = "nothing_new"
	StatusCacheNotFound Status = "cache_not_found"
	StatusFailed        Status = "failed"
)

// Fatal reports whether the status must map to a non-zero exit code.
func (s Status) Fatal() bool {
	return s == StatusFailed
}

// WarningKind classifies a per-record or index anomaly.
type WarningKind string

const (
	WarningNormalization WarningKind = "normalization"
	WarningWrite         WarningKind = "write"
	WarningIndex         WarningKind = "index"
)

// Warning is a non-fatal anomaly recorded during a run.
type Warning struct {
	MeetingID string      `json:"meeting_id,omitempty"`
	Kind      WarningKind `json:"kind"`
	Message   string      `json:"message"`
}

// RunSummary is the result of one export run.
type RunSummary struct {
	RunID               string        `json:"run_id"`
	Status              Status        `json:"status"`
	NewIDs              []string      `json:"new_ids"`
	NewFiles            []string      `json:"new_files"`
	TotalInIndex        int           `json:"total_in_index"`
	TotalDocuments      int           `json:"total_documents"`
	TotalTranscripts    int           `json:"total_transcripts"`
	AlreadyExported     int           `json:"already_exported"`
	SkippedNoTranscript int           `json:"skipped_no_transcript"`
	Warnings            []Warning     `json:"warnings"`
	Error               string        `json:"error,omitempty"`
	Sync                *SyncResult   `json:"sync,omitempty"`
	Duration            time.Duration `json:"duration_ns"`
}

// SyncStatus is what a sync hook reports back.
type SyncStatus string

const (
	SyncPushed  SyncStatus = "pushed"
	SyncSkipped SyncStatus = "skipped"
	SyncFailed  SyncStatus = "failed"
)

// SyncRequest is the read-only view of a run handed to a sync hook.
type SyncRequest struct {
	ExportDir    string
	NewIDs       []string
	TotalInIndex int
}

// SyncResult is logged by the exporter and never gates the run's status.
type SyncResult struct {
	Method  string     `json:"method,omitempty"`
	Status  SyncStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}
