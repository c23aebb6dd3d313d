package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// RunFilter selects run log entries. Filters combine with AND.
type RunFilter func(RunSummary) bool

// FilterByCommand matches entries of the given commands, case-insensitively.
func FilterByCommand(commands []string) RunFilter {
	return func(s RunSummary) bool {
		for _, c := range commands {
			if strings.EqualFold(s.Command, c) {
				return true
			}
		}
		return false
	}
}

// FilterByStatus matches "ok" or "failed" entries.
func FilterByStatus(status string) RunFilter {
	return func(s RunSummary) bool { return strings.EqualFold(s.Status, status) }
}

// FilterSince matches entries stamped at or after t. Entries with an
// unreadable timestamp never match.
func FilterSince(t time.Time) RunFilter {
	return func(s RunSummary) bool {
		ts, err := time.Parse(time.RFC3339Nano, s.Timestamp)
		return err == nil && !ts.Before(t)
	}
}

// RunStats counts what ReadRunLog saw.
type RunStats struct {
	Total     int
	Matched   int
	Errors    int
	Warnings  int
	ByCommand map[string]int
	ByStatus  map[string]int
	First     *time.Time
	Last      *time.Time
}

func newRunStats() *RunStats {
	return &RunStats{ByCommand: map[string]int{}, ByStatus: map[string]int{}}
}

func (s *RunStats) add(r RunSummary) {
	s.Matched++
	s.Warnings += r.Warnings
	s.ByCommand[r.Command]++
	s.ByStatus[r.Status]++
	if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		if s.First == nil || ts.Before(*s.First) {
			s.First = &ts
		}
		if s.Last == nil || ts.After(*s.Last) {
			s.Last = &ts
		}
	}
}

// ReadRunLog reads a JSONL run log and returns the entries passing every
// filter. Malformed lines are counted and skipped.
func ReadRunLog(r io.Reader, filters ...RunFilter) ([]RunSummary, *RunStats, error) {
	stats := newRunStats()
	var out []RunSummary

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var s RunSummary
		if err := json.Unmarshal(line, &s); err != nil {
			stats.Errors++
			continue
		}
		if !matchAll(s, filters) {
			continue
		}
		stats.add(s)
		out = append(out, s)
	}
	if err := scanner.Err(); err != nil {
		return out, stats, fmt.Errorf("read run log: %w", err)
	}
	return out, stats, nil
}

func matchAll(s RunSummary, filters []RunFilter) bool {
	for _, f := range filters {
		if !f(s) {
			return false
		}
	}
	return true
}

// PrintSummary writes the counts in a fixed layout.
func (s *RunStats) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Runs read: %d (malformed: %d)\n", s.Total, s.Errors)
	if s.First != nil && s.Last != nil {
		fmt.Fprintf(w, "  Time range: %s to %s\n", s.First.Format(time.RFC3339), s.Last.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  Matched: %d\n", s.Matched)
	fmt.Fprintf(w, "  Warnings: %d\n", s.Warnings)

	if len(s.ByCommand) > 0 {
		fmt.Fprintf(w, "  By command:\n")
		printSorted(w, s.ByCommand)
	}
	if len(s.ByStatus) > 0 {
		fmt.Fprintf(w, "  By status:\n")
		printSorted(w, s.ByStatus)
	}
}

// printSorted orders by count descending, then name.
func printSorted(w io.Writer, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "    %s: %d\n", k, m[k])
	}
}
