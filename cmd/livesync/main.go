// Package main implements the livesync CLI tool.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "livesync",
	Short:         "Livesync - a synchronized todo list with optimistic edits",
	SilenceUsage:  true,
	SilenceErrors: false,
}
