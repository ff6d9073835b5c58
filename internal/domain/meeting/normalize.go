package meeting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultTitle replaces a missing or blank source title.
	DefaultTitle = "Untitled Meeting"

	// UnknownDate is the sentinel written when the source creation time
	// is missing or malformed.
	UnknownDate = "1970-01-01T00:00:00Z"

	// UnknownSpeaker labels segments without a source or speaker.
	UnknownSpeaker = "unknown"

	// UnknownOffset is the sentinel for segment timestamps that could not be parsed.
	UnknownOffset int64 = -1
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Normalize maps a raw cache record onto the canonical meeting schema.
// It never fails: missing optional fields fall back to empty values and
// malformed timestamps to sentinels, each reported as a warning.
func Normalize(raw RawMeeting) (ExportedMeeting, []Warning) {
	n := normalizer{id: raw.ID}
	doc := gjson.ParseBytes(raw.Document)
	if !doc.IsObject() {
		n.warn("document is not an object; all fields defaulted")
	}

	m := ExportedMeeting{
		ID:     raw.ID,
		Title:  DefaultTitle,
		Date:   UnknownDate,
		People: []string{},
	}

	if title, ok := n.text(doc, "title", true); ok && strings.TrimSpace(title) != "" {
		m.Title = title
	} else if ok {
		n.warn(fmt.Sprintf("blank title; using %q", DefaultTitle))
	}

	var start time.Time
	var haveStart bool
	if created, ok := n.text(doc, "created_at", true); ok {
		if t, err := parseTimestamp(created); err == nil {
			start, haveStart = t, true
			m.Date = t.Format(time.RFC3339Nano)
		} else {
			n.warn(fmt.Sprintf("malformed created_at %q; using %s", created, UnknownDate))
		}
	}

	people, ok := extractPeople(doc.Get("people"))
	if !ok {
		n.warn("missing people; defaulted to empty list")
	}
	m.People = people

	m.Summary, _ = n.text(doc, "summary", true)
	m.NotesMarkdown, _ = n.text(doc, "notes_markdown", true)
	m.Overview, _ = n.text(doc, "overview", false)
	m.NotesPlain, _ = n.text(doc, "notes_plain", false)

	if ch := doc.Get("chapters"); ch.Exists() && ch.Type != gjson.Null {
		m.Chapters = json.RawMessage(ch.Raw)
	}

	m.TranscriptSegments = n.segments(gjson.ParseBytes(raw.Transcript), start, haveStart)
	m.TranscriptText = TranscriptText(m.TranscriptSegments)

	return m, n.warnings
}

type normalizer struct {
	id       string
	warnings []Warning
}

func (n *normalizer) warn(msg string) {
	n.warnings = append(n.warnings, Warning{MeetingID: n.id, Kind: WarningNormalization, Message: msg})
}

// text reads a string field. Absent or null fields report ok=false and, when
// required, a warning; fields of another type are always warned about.
func (n *normalizer) text(doc gjson.Result, key string, required bool) (string, bool) {
	v := doc.Get(key)
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		if required {
			n.warn(fmt.Sprintf("missing %s; defaulted to empty", key))
		}
		return "", false
	case v.Type != gjson.String:
		n.warn(fmt.Sprintf("%s has unexpected type; defaulted to empty", key))
		return "", false
	}
	return v.String(), true
}

func (n *normalizer) segments(transcript gjson.Result, start time.Time, haveStart bool) []Segment {
	out := []Segment{}
	if !transcript.IsArray() {
		return out
	}

	items := transcript.Array()
	if !haveStart {
		// Without a creation time, offsets are relative to the first parseable segment.
		for _, item := range items {
			if t, err := parseTimestamp(item.Get("start_timestamp").String()); err == nil {
				start, haveStart = t, true
				break
			}
		}
	}

	malformed := 0
	for _, item := range items {
		seg := Segment{
			Speaker: speakerOf(item),
			Text:    item.Get("text").String(),
		}
		var ok bool
		if seg.Start, ok = offset(item, "start_timestamp", "start", start, haveStart); !ok {
			malformed++
		}
		if seg.End, ok = offset(item, "end_timestamp", "end", start, haveStart); !ok {
			malformed++
		}
		out = append(out, seg)
	}
	if malformed > 0 {
		n.warn(fmt.Sprintf("%d malformed segment timestamps; set to %d", malformed, UnknownOffset))
	}
	return out
}

func speakerOf(item gjson.Result) string {
	for _, key := range []string{"source", "speaker"} {
		if s := strings.TrimSpace(item.Get(key).String()); s != "" {
			return s
		}
	}
	return UnknownSpeaker
}

// offset converts a segment timestamp to milliseconds from the meeting start.
// Numeric values are taken as offsets already; strings as absolute times.
func offset(item gjson.Result, key, fallbackKey string, start time.Time, haveStart bool) (int64, bool) {
	v := item.Get(key)
	if !v.Exists() {
		v = item.Get(fallbackKey)
	}
	switch v.Type {
	case gjson.Number:
		if v.Num < 0 {
			return UnknownOffset, false
		}
		return v.Int(), true
	case gjson.String:
		t, err := parseTimestamp(v.Str)
		if err != nil || !haveStart {
			return UnknownOffset, false
		}
		ms := t.Sub(start).Milliseconds()
		if ms < 0 {
			ms = 0
		}
		return ms, true
	}
	return UnknownOffset, false
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// extractPeople accepts a list of names or person objects, or an object with
// creator and attendees. ok is false when the field is absent or unusable.
func extractPeople(v gjson.Result) ([]string, bool) {
	people := []string{}
	seen := make(map[string]bool)
	add := func(p gjson.Result) {
		name := personName(p)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		people = append(people, name)
	}

	switch {
	case v.IsArray():
		for _, p := range v.Array() {
			add(p)
		}
	case v.IsObject():
		if c := v.Get("creator"); c.Exists() {
			add(c)
		}
		for _, p := range v.Get("attendees").Array() {
			add(p)
		}
	default:
		return people, false
	}
	return people, true
}

func personName(p gjson.Result) string {
	if !p.IsObject() {
		return strings.TrimSpace(p.String())
	}
	for _, key := range []string{"name", "email"} {
		if s := strings.TrimSpace(p.Get(key).String()); s != "" {
			return s
		}
	}
	return "Unknown"
}

// TranscriptText flattens segments into speaker-labeled paragraphs, merging
// consecutive segments from the same speaker.
func TranscriptText(segments []Segment) string {
	var blocks []string
	var current string
	var texts []string

	flush := func() {
		if len(texts) > 0 {
			blocks = append(blocks, fmt.Sprintf("[%s]: %s", current, strings.Join(texts, " ")))
		}
	}

	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if i == 0 || seg.Speaker != current {
			flush()
			current = seg.Speaker
			texts = texts[:0]
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	flush()

	return strings.Join(blocks, "\n\n")
}
