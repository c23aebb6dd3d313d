package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show policr version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("policr %s\n", Version)
	},
}
