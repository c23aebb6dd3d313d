package runner

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runLog = `{"timestamp":"2026-03-01T10:00:00Z","command":"policy","input":"a.json","warnings":2,"status":"ok"}
not json
{"timestamp":"2026-03-02T10:00:00Z","command":"hierarchy","input":"a-policy.json","warnings":0,"status":"ok"}

{"timestamp":"2026-03-03T10:00:00Z","command":"submit","input":"a.json","warnings":0,"status":"failed","error":"boom"}
{"timestamp":"2026-03-04T10:00:00Z","command":"policy","input":"b.json","warnings":1,"status":"failed","error":"bad"}
`

func TestReadRunLog(t *testing.T) {
	since := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filters  []RunFilter
		commands []string
	}{
		{"no filters", nil, []string{"policy", "hierarchy", "submit", "policy"}},
		{"by command", []RunFilter{FilterByCommand([]string{"POLICY"})}, []string{"policy", "policy"}},
		{"by status", []RunFilter{FilterByStatus("failed")}, []string{"submit", "policy"}},
		{"since", []RunFilter{FilterSince(since)}, []string{"hierarchy", "submit", "policy"}},
		{"combined", []RunFilter{FilterSince(since), FilterByStatus("ok")}, []string{"hierarchy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, stats, err := ReadRunLog(strings.NewReader(runLog), tt.filters...)
			require.NoError(t, err)
			var got []string
			for _, r := range runs {
				got = append(got, r.Command)
			}
			assert.Equal(t, tt.commands, got)
			assert.Equal(t, 5, stats.Total)
			assert.Equal(t, 1, stats.Errors)
			assert.Equal(t, len(tt.commands), stats.Matched)
		})
	}
}

func TestRunStatsSummary(t *testing.T) {
	_, stats, err := ReadRunLog(strings.NewReader(runLog))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Warnings)
	assert.Equal(t, 2, stats.ByCommand["policy"])
	assert.Equal(t, 2, stats.ByStatus["ok"])

	var buf bytes.Buffer
	stats.PrintSummary(&buf)
	out := buf.String()
	assert.Contains(t, out, "Runs read: 5 (malformed: 1)")
	assert.Contains(t, out, "Time range: 2026-03-01T10:00:00Z to 2026-03-04T10:00:00Z")
	assert.Contains(t, out, "    policy: 2\n    hierarchy: 1\n    submit: 1\n")
}
