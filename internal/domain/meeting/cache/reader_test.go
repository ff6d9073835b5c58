package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const innerState = `{"state": {
	"documents": {
		"b-id": {"title": "Second"},
		"a-id": {"title": "First"},
		"c-id": {"title": "No transcript"}
	},
	"transcripts": {
		"a-id": [{"text": "hi"}],
		"b-id": [{"text": "yo"}],
		"orphan": [{"text": "??"}]
	}
}}`

func TestParse_ObjectPayload(t *testing.T) {
	snap, err := Parse([]byte(`{"cache": ` + innerState + `}`))
	require.NoError(t, err)

	assert.Equal(t, 3, snap.TotalDocuments)
	assert.Equal(t, 3, snap.TotalTranscripts)
	require.Len(t, snap.Meetings, 3)

	assert.Equal(t, "a-id", snap.Meetings[0].ID)
	assert.Equal(t, "b-id", snap.Meetings[1].ID)
	assert.Equal(t, "c-id", snap.Meetings[2].ID)

	assert.JSONEq(t, `{"title": "First"}`, string(snap.Meetings[0].Document))
	assert.JSONEq(t, `[{"text": "hi"}]`, string(snap.Meetings[0].Transcript))
	assert.Nil(t, snap.Meetings[2].Transcript)
}

func TestParse_StringPayload(t *testing.T) {
	encoded, err := json.Marshal(innerState)
	require.NoError(t, err)

	snap, err := Parse([]byte(`{"cache": ` + string(encoded) + `}`))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.TotalDocuments)
	assert.Equal(t, "a-id", snap.Meetings[0].ID)
}

func TestParse_Empty(t *testing.T) {
	snap, err := Parse([]byte(`{"cache": {"state": {"documents": {}, "transcripts": {}}}}`))
	require.NoError(t, err)
	assert.Empty(t, snap.Meetings)
	assert.Zero(t, snap.TotalDocuments)
}

func TestParse_MissingKeysReadAsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no cache key", data: `{"other": 1}`},
		{name: "no state", data: `{"cache": {}}`},
		{name: "empty state", data: `{"cache": {"state": {}}}`},
		{name: "no transcripts", data: `{"cache": {"state": {"documents": {}}}}`},
		{name: "no documents", data: `{"cache": "{\"state\": {\"transcripts\": {}}}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Parse([]byte(tt.data))
			require.NoError(t, err)
			assert.Empty(t, snap.Meetings)
			assert.Zero(t, snap.TotalDocuments)
			assert.Zero(t, snap.TotalTranscripts)
		})
	}
}

func TestParse_DocumentsWithoutTranscriptsKey(t *testing.T) {
	snap, err := Parse([]byte(`{"cache": {"state": {"documents": {"a-id": {"title": "First"}}}}}`))
	require.NoError(t, err)
	require.Len(t, snap.Meetings, 1)
	assert.Nil(t, snap.Meetings[0].Transcript)
	assert.Zero(t, snap.TotalTranscripts)
}

func TestParse_RepeatedKeyKeepsLast(t *testing.T) {
	snap, err := Parse([]byte(`{"cache": {"state": {
		"documents": {"dup-1": {"title": "old"}, "dup-1": {"title": "new"}},
		"transcripts": {"dup-1": [{"text": "a"}], "dup-1": [{"text": "b"}]}
	}}}`))
	require.NoError(t, err)

	assert.Equal(t, 1, snap.TotalDocuments)
	assert.Equal(t, 1, snap.TotalTranscripts)
	require.Len(t, snap.Meetings, 1)
	assert.JSONEq(t, `{"title": "new"}`, string(snap.Meetings[0].Document))
	assert.JSONEq(t, `[{"text": "b"}]`, string(snap.Meetings[0].Transcript))
}

func TestParse_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{"cache": `},
		{name: "top level is a list", data: `[]`},
		{name: "payload is null", data: `{"cache": null}`},
		{name: "payload string is a list", data: `{"cache": "[1, 2]"}`},
		{name: "state is a string", data: `{"cache": {"state": "x"}}`},
		{name: "payload is a number", data: `{"cache": 7}`},
		{name: "payload string is not json", data: `{"cache": "{not json"}`},
		{name: "transcripts is a number", data: `{"cache": {"state": {"documents": {}, "transcripts": 3}}}`},
		{name: "documents is a list", data: `{"cache": {"state": {"documents": [], "transcripts": {}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrCacheCorrupt)
		})
	}
}

func TestReader_Missing(t *testing.T) {
	r := &Reader{Path: filepath.Join(t.TempDir(), "cache-v3.json")}
	_, err := r.Read()
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestReader_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache-v3.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cache": `+innerState+`}`), 0o644))

	snap, err := (&Reader{Path: path}).Read()
	require.NoError(t, err)
	assert.Len(t, snap.Meetings, 3)
}
