package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/achievements"
	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/farm"
	"github.com/sproutapp/sprout/internal/persist"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current farm and achievement state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")

			store, err := persist.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}
			farmState, achState := store.Load()

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"farm":         farmState,
					"achievements": achState.Progress,
				})
			}

			fmt.Print(renderStatus(cfg, farmState, achState))
			return nil
		},
	}
}

// renderStatus formats the saved state for humans.
func renderStatus(cfg *config.Config, farmState *farm.State, achState *achievements.State) string {
	crops := make(map[string]config.CropConfig, len(cfg.Crops))
	for _, c := range cfg.Crops {
		crops[c.ID] = c
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total energy: %d\n\n", farmState.TotalEnergy)

	if len(farmState.Plots) == 0 {
		sb.WriteString("No plots unlocked yet. Start coding with 'sprout run' active.\n")
	} else {
		sb.WriteString("Plots:\n")
		for i, p := range farmState.Plots {
			c, ok := crops[p.CropID]
			if !ok || p.CropID == "" {
				fmt.Fprintf(&sb, "  %d. fallow\n", i+1)
				continue
			}
			marker := ""
			if p.Stage == c.Stages-1 {
				marker = " (mature)"
			}
			fmt.Fprintf(&sb, "  %d. %s, stage %d/%d%s\n", i+1, c.Name, p.Stage+1, c.Stages, marker)
		}
	}

	if len(farmState.UnlockedAnimals) > 0 {
		fmt.Fprintf(&sb, "\nAnimals: %s\n", strings.Join(farmState.UnlockedAnimals, ", "))
	}
	if len(farmState.UnlockedBuildings) > 0 {
		fmt.Fprintf(&sb, "Buildings: %s\n", strings.Join(farmState.UnlockedBuildings, ", "))
	}
	fmt.Fprintf(&sb, "\nHarvests: %d  Peak concurrent sessions: %d\n",
		farmState.Stats.TotalHarvests, farmState.Stats.PeakConcurrency)

	sb.WriteString("\nAchievements:\n")
	for _, def := range cfg.Achievements {
		prog := achState.Progress[def.ID]
		if prog == nil {
			prog = &achievements.Progress{ID: def.ID}
		}
		fmt.Fprintf(&sb, "  [%-6s] %s (%d)\n", tierName(def, prog.Tier), def.Title, prog.Value)
	}

	return sb.String()
}

// tierName maps a tier rank onto the achievement's configured tier names.
func tierName(def config.AchievementConfig, tier achievements.Tier) string {
	if tier <= achievements.TierNone || int(tier) > len(def.Tiers) {
		return "-"
	}
	return def.Tiers[int(tier)-1].Name
}
