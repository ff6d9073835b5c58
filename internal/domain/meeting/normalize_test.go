package meeting

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warningMessages(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Message)
	}
	return out
}

func hasWarning(ws []Warning, substr string) bool {
	for _, w := range ws {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestNormalize_CompleteRecord(t *testing.T) {
	raw := RawMeeting{
		ID: "abc12345-6789",
		Document: []byte(`{
			"title": "Weekly Sync",
			"created_at": "2024-03-01T10:00:00Z",
			"people": ["Ana", "Bo", "Ana"],
			"summary": "All good",
			"overview": "Short",
			"notes_markdown": "# Notes",
			"notes_plain": "Notes",
			"chapters": [{"title": "Intro"}]
		}`),
		Transcript: []byte(`[
			{"source": "microphone", "text": "Hello", "start_timestamp": "2024-03-01T10:00:01Z", "end_timestamp": "2024-03-01T10:00:02.500Z"},
			{"source": "microphone", "text": "there", "start_timestamp": "2024-03-01T10:00:03Z", "end_timestamp": "2024-03-01T10:00:04Z"},
			{"source": "system", "text": "Hi", "start_timestamp": "2024-03-01T10:00:05Z", "end_timestamp": "2024-03-01T10:00:06Z"}
		]`),
	}

	m, warnings := Normalize(raw)
	require.Empty(t, warnings, warningMessages(warnings))

	assert.Equal(t, "abc12345-6789", m.ID)
	assert.Equal(t, "Weekly Sync", m.Title)
	assert.Equal(t, "2024-03-01T10:00:00Z", m.Date)
	assert.Equal(t, []string{"Ana", "Bo"}, m.People)
	assert.Equal(t, "All good", m.Summary)
	assert.Equal(t, "Short", m.Overview)
	assert.Equal(t, "# Notes", m.NotesMarkdown)
	assert.Equal(t, "Notes", m.NotesPlain)
	assert.JSONEq(t, `[{"title": "Intro"}]`, string(m.Chapters))

	want := []Segment{
		{Speaker: "microphone", Text: "Hello", Start: 1000, End: 2500},
		{Speaker: "microphone", Text: "there", Start: 3000, End: 4000},
		{Speaker: "system", Text: "Hi", Start: 5000, End: 6000},
	}
	if diff := cmp.Diff(want, m.TranscriptSegments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "[microphone]: Hello there\n\n[system]: Hi", m.TranscriptText)
}

func TestNormalize_MissingFieldsDefaultWithWarnings(t *testing.T) {
	m, warnings := Normalize(RawMeeting{ID: "m1", Document: []byte(`{}`)})

	assert.Equal(t, DefaultTitle, m.Title)
	assert.Equal(t, UnknownDate, m.Date)
	assert.Equal(t, []string{}, m.People)
	assert.Empty(t, m.Summary)
	assert.Empty(t, m.NotesMarkdown)
	assert.Equal(t, []Segment{}, m.TranscriptSegments)
	assert.Empty(t, m.TranscriptText)
	assert.Nil(t, m.Chapters)

	for _, key := range []string{"title", "created_at", "people", "summary", "notes_markdown"} {
		assert.True(t, hasWarning(warnings, key), "expected warning about %s, got %v", key, warningMessages(warnings))
	}
	for _, w := range warnings {
		assert.Equal(t, "m1", w.MeetingID)
		assert.Equal(t, WarningNormalization, w.Kind)
	}
}

func TestNormalize_DocumentNotObject(t *testing.T) {
	m, warnings := Normalize(RawMeeting{ID: "m1", Document: []byte(`"oops"`)})

	assert.Equal(t, DefaultTitle, m.Title)
	assert.True(t, hasWarning(warnings, "not an object"))
}

func TestNormalize_WrongTypes(t *testing.T) {
	m, warnings := Normalize(RawMeeting{
		ID:       "m1",
		Document: []byte(`{"title": 42, "created_at": "2024-01-01T00:00:00Z", "people": [], "summary": {"x": 1}, "notes_markdown": ""}`),
	})

	assert.Equal(t, DefaultTitle, m.Title)
	assert.Empty(t, m.Summary)
	assert.True(t, hasWarning(warnings, "title has unexpected type"))
	assert.True(t, hasWarning(warnings, "summary has unexpected type"))
}

func TestNormalize_BlankTitle(t *testing.T) {
	m, warnings := Normalize(RawMeeting{ID: "m1", Document: []byte(`{"title": "   "}`)})

	assert.Equal(t, DefaultTitle, m.Title)
	assert.True(t, hasWarning(warnings, "blank title"))
}

func TestNormalize_MalformedCreatedAt(t *testing.T) {
	m, warnings := Normalize(RawMeeting{ID: "m1", Document: []byte(`{"created_at": "yesterday"}`)})

	assert.Equal(t, UnknownDate, m.Date)
	assert.True(t, hasWarning(warnings, "malformed created_at"))
}

func TestNormalize_People(t *testing.T) {
	tests := []struct {
		name   string
		people string
		want   []string
	}{
		{
			name:   "list of names",
			people: `["Ana", "Bo"]`,
			want:   []string{"Ana", "Bo"},
		},
		{
			name:   "list of person objects",
			people: `[{"name": "Ana"}, {"email": "bo@example.com"}, {}]`,
			want:   []string{"Ana", "bo@example.com", "Unknown"},
		},
		{
			name:   "creator and attendees",
			people: `{"creator": {"name": "Ana"}, "attendees": [{"name": "Bo"}, {"name": "Ana"}]}`,
			want:   []string{"Ana", "Bo"},
		},
		{
			name:   "blank names dropped",
			people: `["", "  ", "Cy"]`,
			want:   []string{"Cy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, warnings := Normalize(RawMeeting{ID: "m1", Document: []byte(`{"people": ` + tt.people + `}`)})
			assert.Equal(t, tt.want, m.People)
			assert.False(t, hasWarning(warnings, "missing people"))
		})
	}
}

func TestNormalize_SegmentOffsets(t *testing.T) {
	t.Run("numeric offsets pass through", func(t *testing.T) {
		m, warnings := Normalize(RawMeeting{
			ID:         "m1",
			Document:   []byte(`{"created_at": "2024-01-01T00:00:00Z"}`),
			Transcript: []byte(`[{"speaker": "Ana", "text": "hi", "start": 1500, "end": 2000}]`),
		})
		assert.False(t, hasWarning(warnings, "malformed segment"))
		assert.Equal(t, []Segment{{Speaker: "Ana", Text: "hi", Start: 1500, End: 2000}}, m.TranscriptSegments)
	})

	t.Run("segment before meeting start clamps to zero", func(t *testing.T) {
		m, _ := Normalize(RawMeeting{
			ID:         "m1",
			Document:   []byte(`{"created_at": "2024-01-01T00:00:10Z"}`),
			Transcript: []byte(`[{"text": "early", "start_timestamp": "2024-01-01T00:00:05Z", "end_timestamp": "2024-01-01T00:00:12Z"}]`),
		})
		require.Len(t, m.TranscriptSegments, 1)
		assert.Equal(t, int64(0), m.TranscriptSegments[0].Start)
		assert.Equal(t, int64(2000), m.TranscriptSegments[0].End)
		assert.Equal(t, UnknownSpeaker, m.TranscriptSegments[0].Speaker)
	})

	t.Run("without created_at offsets are relative to first segment", func(t *testing.T) {
		m, _ := Normalize(RawMeeting{
			ID:       "m1",
			Document: []byte(`{}`),
			Transcript: []byte(`[
				{"text": "a", "start_timestamp": "2024-01-01T00:01:00Z", "end_timestamp": "2024-01-01T00:01:01Z"},
				{"text": "b", "start_timestamp": "2024-01-01T00:01:02Z", "end_timestamp": "2024-01-01T00:01:03Z"}
			]`),
		})
		require.Len(t, m.TranscriptSegments, 2)
		assert.Equal(t, int64(0), m.TranscriptSegments[0].Start)
		assert.Equal(t, int64(2000), m.TranscriptSegments[1].Start)
	})

	t.Run("malformed timestamps use sentinel", func(t *testing.T) {
		m, warnings := Normalize(RawMeeting{
			ID:         "m1",
			Document:   []byte(`{"created_at": "2024-01-01T00:00:00Z"}`),
			Transcript: []byte(`[{"text": "a", "start_timestamp": "garbage"}]`),
		})
		require.Len(t, m.TranscriptSegments, 1)
		assert.Equal(t, UnknownOffset, m.TranscriptSegments[0].Start)
		assert.Equal(t, UnknownOffset, m.TranscriptSegments[0].End)
		assert.True(t, hasWarning(warnings, "2 malformed segment timestamps"))
	})
}

func TestNormalize_TranscriptNotArray(t *testing.T) {
	m, _ := Normalize(RawMeeting{ID: "m1", Document: []byte(`{}`), Transcript: []byte(`{"nope": true}`)})
	assert.Equal(t, []Segment{}, m.TranscriptSegments)
}

func TestTranscriptText(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     string
	}{
		{name: "empty", segments: nil, want: ""},
		{
			name: "merges consecutive speakers",
			segments: []Segment{
				{Speaker: "a", Text: "one"},
				{Speaker: "a", Text: " two "},
				{Speaker: "b", Text: "three"},
				{Speaker: "a", Text: "four"},
			},
			want: "[a]: one two\n\n[b]: three\n\n[a]: four",
		},
		{
			name: "skips blank text",
			segments: []Segment{
				{Speaker: "a", Text: ""},
				{Speaker: "b", Text: "hi"},
			},
			want: "[b]: hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranscriptText(tt.segments))
		})
	}
}
