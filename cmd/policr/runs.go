package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/runner"
)

var (
	runsFile     string
	runsCommands []string
	runsStatus   string
	runsSince    string
	runsLast     time.Duration
	runsSummary  bool
	runsLimit    int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the run log",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := runsFile
		if path == "" {
			path = config.Get().Logging.RunLog
		}
		if path == "" {
			return fmt.Errorf("no run log configured (set logging.run_log or pass --file)")
		}

		var filters []runner.RunFilter
		if len(runsCommands) > 0 {
			filters = append(filters, runner.FilterByCommand(runsCommands))
		}
		if runsStatus != "" {
			filters = append(filters, runner.FilterByStatus(runsStatus))
		}
		switch {
		case runsSince != "":
			t, err := dateparse.ParseIn(runsSince, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --since %q: %w", runsSince, err)
			}
			filters = append(filters, runner.FilterSince(t))
		case runsLast > 0:
			filters = append(filters, runner.FilterSince(time.Now().UTC().Add(-runsLast)))
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open run log: %w", err)
		}
		defer f.Close()

		runs, stats, err := runner.ReadRunLog(f, filters...)
		if err != nil {
			return err
		}
		if runsSummary {
			stats.PrintSummary(output.Stdout)
			return nil
		}
		if runsLimit > 0 && len(runs) > runsLimit {
			runs = runs[len(runs)-runsLimit:]
		}

		t := output.NewTable("TIMESTAMP", "COMMAND", "STATUS", "WARNINGS", "INPUT", "OUTPUT", "ERROR")
		for _, r := range runs {
			t.AddRow(r.Timestamp, r.Command, r.Status, strconv.Itoa(r.Warnings), r.Input, r.Output, r.Error)
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsFile, "file", "", "Run log path (default logging.run_log)")
	runsCmd.Flags().StringSliceVar(&runsCommands, "command", nil, "Only these commands (policy, hierarchy, submit)")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "Only runs with this status (ok, failed)")
	runsCmd.Flags().StringVar(&runsSince, "since", "", "Only runs at or after this time")
	runsCmd.Flags().DurationVar(&runsLast, "last", 0, "Only runs within this duration, e.g. 24h")
	runsCmd.Flags().BoolVar(&runsSummary, "summary", false, "Print counts instead of runs")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 0, "Show at most this many of the latest runs")
}
