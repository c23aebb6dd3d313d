package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pp-cti/policr/internal/policr/event"
	"github.com/pp-cti/policr/internal/policr/output"
)

var (
	eventFile string
	eventJSON bool
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Inspect captured events",
}

var eventInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the fields of an event available for policy assignment",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(eventFile)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		c, err := event.Parse(data)
		if err != nil {
			return err
		}
		fields := event.Extract(c)
		summary := event.Summarize(c)

		if eventJSON {
			return output.JSON(struct {
				Summary event.Summary `json:"summary"`
				Fields  *event.Fields `json:"fields"`
			}{summary, fields})
		}

		output.Info("event %s (%s)", summary.UUID, summary.Info)
		output.Info("mode: %s, fields: %d, date: %s", summary.Mode, summary.Fields, summary.Date)

		switch fields.Mode {
		case event.ModeFlat:
			t := output.NewTable("ATTRIBUTE")
			for _, a := range fields.Attributes {
				t.AddRow(a)
			}
			t.Render()
		case event.ModeNested:
			t := output.NewTable("OBJECT", "ATTRIBUTES")
			for _, o := range fields.Objects {
				t.AddRow(o.Name, strings.Join(o.Attributes, ", "))
			}
			t.Render()
		default:
			output.Warn("event has neither attributes nor objects")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventInspectCmd)

	eventInspectCmd.Flags().StringVar(&eventFile, "event", "", "Path to the event JSON file")
	eventInspectCmd.Flags().BoolVar(&eventJSON, "json", false, "Print the summary as JSON")
	_ = eventInspectCmd.MarkFlagRequired("event")
}
