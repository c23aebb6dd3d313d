package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/scheme"
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List the anonymization techniques and their parameters",
	Run: func(cmd *cobra.Command, args []string) {
		t := output.NewTable("TECHNIQUE", "PARAMETERS", "ATTRIBUTE", "OBJECT", "DP POLICY", "HIERARCHY")
		for _, k := range scheme.All() {
			params := make([]string, 0, len(k.Params()))
			for _, p := range k.Params() {
				params = append(params, string(p))
			}
			t.AddRow(
				k.String(),
				strings.Join(params, ", "),
				yesNo(k.In(scheme.AttributeSchemes)),
				yesNo(k.In(scheme.ObjectSchemes)),
				yesNo(k.In(scheme.DPSchemes)),
				yesNo(k.NeedsHierarchy()),
			)
		}
		t.Render()
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func init() {
	rootCmd.AddCommand(schemesCmd)
}
