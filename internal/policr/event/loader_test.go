package event

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-cti/policr/internal/policr/errs"
)

func TestLoad_FlatDedupInsertionOrder(t *testing.T) {
	data := []byte(`{"Event":{"Attribute":[
		{"object_relation":"age"},
		{"object_relation":"age"},
		{"object_relation":"zip"}]}}`)

	f, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, ModeFlat, f.Mode)
	assert.Equal(t, []string{"age", "zip"}, f.Attributes)
	assert.Empty(t, f.Objects)
	assert.True(t, f.HasAttribute("zip"))
	assert.False(t, f.HasAttribute("name"))
}

func TestLoad_Nested(t *testing.T) {
	data := []byte(`{"Event":{"Object":[
		{"name":"person","Attribute":[{"object_relation":"age"},{"object_relation":"zip"},{"object_relation":"age"}]},
		{"name":"file","Attribute":[{"object_relation":"md5"}]},
		{"name":"person","Attribute":[{"object_relation":"gender"},{"object_relation":"zip"}]}]}}`)

	f, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, ModeNested, f.Mode)
	assert.Equal(t, []ObjectFields{
		{Name: "person", Attributes: []string{"age", "zip", "gender"}},
		{Name: "file", Attributes: []string{"md5"}},
	}, f.Objects)
	assert.Equal(t, 4, f.Count())

	o, ok := f.Object("file")
	require.True(t, ok)
	assert.Equal(t, []string{"md5"}, o.Attributes)
	_, ok = f.Object("network")
	assert.False(t, ok)
}

func TestLoad_AttributesWinOverObjects(t *testing.T) {
	data := []byte(`{"Event":{"Attribute":[{"object_relation":"ip"}],"Object":[{"name":"person","Attribute":[]}]}}`)
	f, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, ModeFlat, f.Mode)
	assert.Equal(t, []string{"ip"}, f.Attributes)
}

func TestLoad_NoUsableFields(t *testing.T) {
	f, err := Load([]byte(`{"Event":{"info":"empty"}}`))
	require.NoError(t, err)
	assert.Equal(t, ModeNone, f.Mode)
	assert.Zero(t, f.Count())
}

func TestLoad_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"Event":`},
		{"missing Event", `{"event":{"Attribute":[]}}`},
		{"null Event", `{"Event":null}`},
		{"array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrFormat), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Event":{"Attribute":[{"object_relation":"email"}]}}`), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, f.Attributes)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	c, err := Parse([]byte(`{"Event":{"info":"phishing campaign","uuid":"5e0f","date":"2024-03-05","timestamp":"1709640000",
		"Object":[{"name":"person","Attribute":[{"object_relation":"age"}]}]}}`))
	require.NoError(t, err)

	s := Summarize(c)
	assert.Equal(t, ModeNested, s.Mode)
	assert.Equal(t, "phishing campaign", s.Info)
	assert.Equal(t, "2024-03-05T00:00:00Z", s.Date)
	assert.Equal(t, "2024-03-05T12:00:00Z", s.Timestamp)
	assert.Equal(t, 1, s.Fields)
	assert.Equal(t, 1, s.Objects)
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "", normalizeTimestamp(""))
	assert.Equal(t, "", normalizeTimestamp("null"))
	assert.Equal(t, "", normalizeTimestamp("not a date"))
	assert.Equal(t, "2025-09-19T12:00:00Z", normalizeTimestamp("2025-09-19 12:00:00"))
}
