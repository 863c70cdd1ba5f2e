package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/persist"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved farm and achievement state",
		Long: `Remove the persisted state file so the farm starts over from nothing.
Session history is kept unless --history is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			force, _ := cmd.Flags().GetBool("force")
			withHistory, _ := cmd.Flags().GetBool("history")

			// JSON mode implies force (no interactive prompts)
			if jsonOut {
				force = true
			}

			if !force {
				fmt.Print("This deletes all farm progress. Confirm? [y/N]: ")
				reader := bufio.NewReader(os.Stdin)
				response, _ := reader.ReadString('\n')
				response = strings.TrimSpace(strings.ToLower(response))
				if response != "y" && response != "yes" {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			store, err := persist.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}

			removed := []string{}
			if err := os.Remove(store.Path()); err == nil {
				removed = append(removed, store.Path())
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("removing state file: %w", err)
			}

			if withHistory {
				for _, name := range []string{"history.db", "history.db-wal", "history.db-shm"} {
					path := filepath.Join(cfg.DataDir, name)
					if err := os.Remove(path); err == nil {
						removed = append(removed, path)
					}
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"status":  "reset",
					"removed": removed,
				})
			}

			if len(removed) == 0 {
				fmt.Println("Nothing to reset.")
			} else {
				fmt.Println("Farm state reset.")
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Skip confirmation prompt")
	cmd.Flags().Bool("history", false, "Also delete the session history database")

	return cmd
}
