package main

import (
	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/runner"
)

var (
	policyEvent  string
	policyForm   string
	policyOutDir string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Author privacy policies",
}

var policyBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a privacy policy for an event from a YAML form",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.RunPolicy(cmd.Context(), runner.PolicyRequest{
			EventPath: policyEvent,
			FormPath:  policyForm,
			OutDir:    policyOutDir,
		}, config.Get())
		if res != nil {
			printWarnings(res.Warnings)
		}
		if err != nil {
			return err
		}
		output.Success("privacy policy %s written to %s", res.UUID, res.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyBuildCmd)

	policyBuildCmd.Flags().StringVar(&policyEvent, "event", "", "Path to the event JSON file")
	policyBuildCmd.Flags().StringVar(&policyForm, "form", "", "Path to the policy form YAML")
	policyBuildCmd.Flags().StringVar(&policyOutDir, "out-dir", "", "Output directory (default from config)")
	_ = policyBuildCmd.MarkFlagRequired("event")
	_ = policyBuildCmd.MarkFlagRequired("form")
}
