// Package index persists the master listing of exported meetings.
//
// The index is a single JSON document at <exportDir>/index.json. It is
// loaded once per run, mutated in memory, and replaced atomically, so a
// crash mid-write leaves the previous index intact.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rileycx/granola-export/internal/atomicfile"
	"github.com/rileycx/granola-export/internal/domain/meeting"
)

// FileName is the index file name inside the export dir.
const FileName = "index.json"

var (
	// ErrIndexCorrupt means the index file could not be decoded. Load
	// recovers from it by starting with an empty index.
	ErrIndexCorrupt = errors.New("index file corrupted")

	// ErrIndexPersist means the index could not be written.
	ErrIndexPersist = errors.New("index persist failed")
)

// Store holds the loaded index document keyed by meeting id.
type Store struct {
	path   string
	doc    meeting.IndexDocument
	byID   map[string]int
	logger *zap.Logger
}

// NewStore returns a store for the index inside exportDir. Call Load before use.
func NewStore(exportDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   filepath.Join(exportDir, FileName),
		byID:   make(map[string]int),
		logger: logger,
	}
}

// Path returns the index file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the index from disk. A missing file yields an empty index.
// A corrupt file also yields an empty index; the returned error then wraps
// ErrIndexCorrupt and is meant to be reported, not treated as fatal.
func (s *Store) Load() error {
	s.reset()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		s.logger.Warn("index unreadable, starting with empty index", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	var doc meeting.IndexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("index corrupt, starting with empty index", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	s.doc = doc
	s.doc.Meetings = nil
	for _, e := range doc.Meetings {
		if e.ID == "" {
			continue
		}
		s.Upsert(e)
	}
	if dropped := len(doc.Meetings) - len(s.doc.Meetings); dropped > 0 {
		s.logger.Warn("dropped duplicate or id-less index entries", zap.Int("count", dropped))
	}
	return nil
}

func (s *Store) reset() {
	s.doc = meeting.IndexDocument{}
	s.byID = make(map[string]int)
}

// Contains reports whether id has already been exported.
func (s *Store) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the entry for id.
func (s *Store) Get(id string) (meeting.IndexEntry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return meeting.IndexEntry{}, false
	}
	return s.doc.Meetings[i], true
}

// Upsert adds e or replaces the existing entry with the same id.
func (s *Store) Upsert(e meeting.IndexEntry) {
	if i, ok := s.byID[e.ID]; ok {
		s.doc.Meetings[i] = e
		return
	}
	s.byID[e.ID] = len(s.doc.Meetings)
	s.doc.Meetings = append(s.doc.Meetings, e)
}

// Remove deletes the entry for id.
func (s *Store) Remove(id string) bool {
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.doc.Meetings = append(s.doc.Meetings[:i], s.doc.Meetings[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.doc.Meetings); j++ {
		s.byID[s.doc.Meetings[j].ID] = j
	}
	return true
}

// Prune removes entries whose meeting file no longer exists under exportDir
// and returns them.
func (s *Store) Prune(exportDir string) []meeting.IndexEntry {
	var orphans []meeting.IndexEntry
	for _, e := range s.Entries() {
		if _, err := os.Stat(filepath.Join(exportDir, filepath.FromSlash(e.Filename))); err != nil {
			orphans = append(orphans, e)
		}
	}
	for _, e := range orphans {
		s.Remove(e.ID)
	}
	return orphans
}

// Len is the number of indexed meetings.
func (s *Store) Len() int {
	return len(s.doc.Meetings)
}

// Entries returns a copy of the indexed entries, newest first.
func (s *Store) Entries() []meeting.IndexEntry {
	out := make([]meeting.IndexEntry, len(s.doc.Meetings))
	copy(out, s.doc.Meetings)
	sortEntries(out)
	return out
}

// SetTotals records the cache-wide counts written alongside the entries.
func (s *Store) SetTotals(documents, transcripts int) {
	s.doc.TotalDocuments = documents
	s.doc.TotalTranscripts = transcripts
}

// Document returns the index document as it would be persisted.
func (s *Store) Document() meeting.IndexDocument {
	doc := s.doc
	doc.Meetings = s.Entries()
	doc.ExportedCount = len(doc.Meetings)
	return doc
}

// Persist writes the whole index atomically.
func (s *Store) Persist(now time.Time) error {
	doc := s.Document()
	doc.ExportedAt = now

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling: %v", ErrIndexPersist, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexPersist, err)
	}
	if err := atomicfile.Write(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexPersist, err)
	}

	s.doc.ExportedAt = now
	return nil
}

// sortEntries orders entries newest first by instant, so dates carrying
// different UTC offsets compare correctly. Unparseable dates sort last.
func sortEntries(entries []meeting.IndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, okI := parseDate(entries[i].Date)
		tj, okJ := parseDate(entries[j].Date)
		switch {
		case okI && okJ && !ti.Equal(tj):
			return ti.After(tj)
		case okI != okJ:
			return okI
		case !okI && entries[i].Date != entries[j].Date:
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID < entries[j].ID
	})
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}
