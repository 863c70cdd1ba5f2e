package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sprout",
		Short: "A farm that grows from your coding activity",
		Long: `sprout watches Claude Code transcript logs and turns coding activity
into a persistent farm: tool calls and reasoning earn energy, energy
grows crops and unlocks animals, buildings, and achievements.

Run 'sprout run' to start the watcher, 'sprout status' to see the farm.`,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newResetCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
