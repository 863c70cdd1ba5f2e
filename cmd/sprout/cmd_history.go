package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently closed coding sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := history.Open(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"sessions": entries,
					"count":    len(entries),
				})
			}

			if len(entries) == 0 {
				fmt.Println("No recorded sessions yet.")
				return nil
			}

			fmt.Printf("Recent sessions (%d):\n\n", len(entries))
			for i, e := range entries {
				fmt.Printf("%d. %s  %s\n", i+1, e.DisplayName, e.SessionID)
				fmt.Printf("   %s  (%s)\n",
					e.End.Local().Format(time.RFC822),
					e.Duration.Round(time.Second))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Maximum sessions to show")

	return cmd
}
