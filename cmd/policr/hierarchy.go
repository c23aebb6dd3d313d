package main

import (
	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/runner"
)

var (
	hierarchyPolicy string
	hierarchyForm   string
	hierarchyOutDir string
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Author generalization hierarchies",
}

var hierarchyBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a hierarchy policy for a privacy policy from a YAML form",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runner.RunHierarchy(cmd.Context(), runner.HierarchyRequest{
			PolicyPath: hierarchyPolicy,
			FormPath:   hierarchyForm,
			OutDir:     hierarchyOutDir,
		}, config.Get())
		if res != nil {
			printWarnings(res.Warnings)
		}
		if err != nil {
			return err
		}
		output.Success("hierarchy policy %s written to %s", res.UUID, res.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
	hierarchyCmd.AddCommand(hierarchyBuildCmd)

	hierarchyBuildCmd.Flags().StringVar(&hierarchyPolicy, "policy", "", "Path to the privacy policy JSON file")
	hierarchyBuildCmd.Flags().StringVar(&hierarchyForm, "form", "", "Path to the hierarchy form YAML")
	hierarchyBuildCmd.Flags().StringVar(&hierarchyOutDir, "out-dir", "", "Output directory (default from config)")
	_ = hierarchyBuildCmd.MarkFlagRequired("policy")
	_ = hierarchyBuildCmd.MarkFlagRequired("form")
}
