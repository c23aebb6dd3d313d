package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/hierarchy"
	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/policy"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate finalized policy documents",
}

var validatePolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Validate a privacy policy JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(validateFile)
		if err != nil {
			return fmt.Errorf("open policy file: %w", err)
		}
		defer f.Close()

		doc, err := policy.Validate(f)
		if err != nil {
			return fmt.Errorf("privacy policy validation failed: %w", err)
		}
		p := doc.PrivacyPolicy
		output.Success("privacy policy %s validated successfully", p.UUID)
		output.Info("attributes: %d, templates: %d", len(p.Attributes), len(p.Templates))
		return nil
	},
}

var validateHierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Validate a hierarchy policy JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(validateFile)
		if err != nil {
			return fmt.Errorf("open hierarchy file: %w", err)
		}
		defer f.Close()

		doc, err := hierarchy.Validate(f)
		if err != nil {
			return fmt.Errorf("hierarchy policy validation failed: %w", err)
		}
		p := doc.HierarchyPolicy
		output.Success("hierarchy policy %s validated successfully", p.UUID)
		output.Info("attributes: %d, objects: %d", len(p.Attributes), len(p.Objects))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validatePolicyCmd, validateHierarchyCmd)

	for _, c := range []*cobra.Command{validatePolicyCmd, validateHierarchyCmd} {
		c.Flags().StringVar(&validateFile, "file", "", "Path to the JSON document")
		_ = c.MarkFlagRequired("file")
	}
}
