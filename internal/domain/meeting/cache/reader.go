// Package cache reads the source application's local meeting cache.
//
// The cache is a single JSON document of the form
//
//	{"cache": <object or JSON-encoded string>}
//
// whose inner state.documents and state.transcripts objects map meeting ids
// to the meeting document and its transcript segments. Missing keys read as
// an empty cache. The read is otherwise all-or-nothing: invalid JSON or a
// key of the wrong type fails the whole read.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/rileycx/granola-export/internal/domain/meeting"
)

var (
	// ErrCacheUnavailable means the cache file does not exist yet.
	ErrCacheUnavailable = errors.New("cache not found")

	// ErrCacheCorrupt means the cache file exists but is not the expected structure.
	ErrCacheCorrupt = errors.New("cache corrupt")
)

// Snapshot is the in-memory result of one cache read.
type Snapshot struct {
	Meetings         []meeting.RawMeeting // sorted by id
	TotalDocuments   int
	TotalTranscripts int
}

// Reader loads the cache from Path.
type Reader struct {
	Path string
}

// Read loads and validates the cache file.
func (r *Reader) Read() (*Snapshot, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheUnavailable, r.Path)
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw cache bytes into a Snapshot. Absent cache, state,
// documents or transcripts keys read as empty; present keys of the wrong
// type are corrupt.
func Parse(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: file is not valid JSON", ErrCacheCorrupt)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrCacheCorrupt)
	}

	blob := root.Get("cache")
	var inner gjson.Result
	switch {
	case !blob.Exists():
		inner = emptyObject
	case blob.Type == gjson.String:
		if !gjson.Valid(blob.Str) {
			return nil, fmt.Errorf("%w: cache payload is not valid JSON", ErrCacheCorrupt)
		}
		inner = gjson.Parse(blob.Str)
		if !inner.IsObject() {
			return nil, fmt.Errorf("%w: cache payload is not an object", ErrCacheCorrupt)
		}
	case blob.IsObject():
		inner = blob
	default:
		return nil, fmt.Errorf("%w: cache payload has unexpected type", ErrCacheCorrupt)
	}

	state, err := object(inner, "state")
	if err != nil {
		return nil, err
	}
	documents, err := object(state, "documents")
	if err != nil {
		return nil, err
	}
	transcripts, err := object(state, "transcripts")
	if err != nil {
		return nil, err
	}

	// Ids are map keys, not gjson paths; collect by iteration. A repeated
	// key keeps its last value.
	transcriptsByID := make(map[string]gjson.Result)
	transcripts.ForEach(func(key, value gjson.Result) bool {
		transcriptsByID[key.String()] = value
		return true
	})
	documentsByID := make(map[string]gjson.Result)
	documents.ForEach(func(key, value gjson.Result) bool {
		documentsByID[key.String()] = value
		return true
	})

	snap := &Snapshot{
		Meetings:         make([]meeting.RawMeeting, 0, len(documentsByID)),
		TotalDocuments:   len(documentsByID),
		TotalTranscripts: len(transcriptsByID),
	}
	for id, doc := range documentsByID {
		raw := meeting.RawMeeting{
			ID:       id,
			Document: []byte(doc.Raw),
		}
		if t, ok := transcriptsByID[id]; ok && t.Type != gjson.Null {
			raw.Transcript = []byte(t.Raw)
		}
		snap.Meetings = append(snap.Meetings, raw)
	}

	sort.Slice(snap.Meetings, func(i, j int) bool {
		return snap.Meetings[i].ID < snap.Meetings[j].ID
	})

	return snap, nil
}

var emptyObject = gjson.Parse("{}")

// object returns parent[key], an empty object when the key is absent, or
// ErrCacheCorrupt when it holds anything but an object.
func object(parent gjson.Result, key string) (gjson.Result, error) {
	v := parent.Get(key)
	if !v.Exists() {
		return emptyObject, nil
	}
	if !v.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: %s is not an object", ErrCacheCorrupt, key)
	}
	return v, nil
}
