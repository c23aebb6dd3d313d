package event

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Summary describes a loaded event for display.
type Summary struct {
	Mode      Mode   `json:"mode"`
	Info      string `json:"info,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	Date      string `json:"date,omitempty"`      // RFC3339 UTC
	Timestamp string `json:"timestamp,omitempty"` // RFC3339 UTC
	Fields    int    `json:"fields"`
	Objects   int    `json:"objects,omitempty"`
}

// Summarize builds a Summary for a parsed capture.
func Summarize(c *Capture) Summary {
	f := Extract(c)
	s := Summary{Mode: f.Mode, Fields: f.Count(), Objects: len(f.Objects)}
	if c == nil || c.Event == nil {
		return s
	}
	s.Info = c.Event.Info
	s.UUID = c.Event.UUID
	s.Date = normalizeTimestamp(c.Event.Date)
	s.Timestamp = normalizeTimestamp(strings.Trim(string(c.Event.Timestamp), `"`))
	return s
}

// normalizeTimestamp tries to parse any timestamp string using dateparse,
// including unix seconds as MISP writes them.
// Returns RFC3339 UTC, or "" when unparseable.
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return ""
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
