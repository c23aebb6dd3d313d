package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/ledger"
	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/policy"
	"github.com/pp-cti/policr/internal/policr/runner"
)

var (
	submitReq      runner.SubmitRequest
	submitEndpoint string
	submitPlugin   string
	historyLimit   int
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send an event with its policies to the transformer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if submitEndpoint != "" {
			cfg.Transformer.Endpoint = submitEndpoint
		}
		if submitPlugin != "" {
			cfg.Transformer.Plugin = submitPlugin
		}

		req := submitReq
		req.OnWarning = func(w policy.Warning) { output.Warn("%s", w) }

		res, err := runner.RunSubmit(cmd.Context(), req, cfg)
		if err != nil {
			return err
		}
		output.Success("submitted to %s (status %d)", cfg.Transformer.Endpoint, res.StatusCode)
		if len(res.Body) > 0 {
			output.Info("%s", res.Body)
		}
		return nil
	},
}

var submitHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent submissions recorded in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if !cfg.Ledger.Enabled {
			return fmt.Errorf("ledger is disabled (set ledger.enabled in config)")
		}
		l, err := ledger.Open(cmd.Context(), cfg.Ledger)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer l.Close()

		records, err := l.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			output.Info("no submissions recorded")
			return nil
		}

		t := output.NewTable("SUBMITTED", "OUTCOME", "STATUS", "TRANSFORMER", "POLICY", "HIERARCHY")
		for _, r := range records {
			t.AddRow(
				r.SubmittedAt.Local().Format(time.RFC3339),
				r.Outcome,
				strconv.Itoa(r.StatusCode),
				r.Transformer,
				r.PolicyUUID,
				r.HierarchyUUID,
			)
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.AddCommand(submitHistoryCmd)

	f := submitCmd.Flags()
	f.StringVar(&submitReq.EventPath, "event", "", "Path to the event JSON file")
	f.StringVar(&submitReq.PolicyPath, "policy", "", "Path to a privacy policy JSON file")
	f.BoolVar(&submitReq.GeneratePolicy, "generate-policy", false, "Build the privacy policy from --policy-form")
	f.StringVar(&submitReq.PolicyForm, "policy-form", "", "Policy form YAML used with --generate-policy")
	f.StringVar(&submitReq.HierarchyPath, "hierarchy", "", "Path to a hierarchy policy JSON file")
	f.BoolVar(&submitReq.GenerateHierarchy, "generate-hierarchy", false, "Build the hierarchy policy from --hierarchy-form")
	f.StringVar(&submitReq.HierarchyForm, "hierarchy-form", "", "Hierarchy form YAML used with --generate-hierarchy")
	f.StringVar(&submitEndpoint, "endpoint", "", "Transformer URL (default from config)")
	f.StringVar(&submitPlugin, "transformer", "", "Transformer plugin name (default from config)")
	_ = submitCmd.MarkFlagRequired("event")

	submitHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of submissions to show")
}
