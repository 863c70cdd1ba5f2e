package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sproutapp/sprout/internal/achievements"
	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/farm"
)

const farmStatusURI = "sprout://farm/status"

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sprout_status",
		Description: "Get the current farm state: energy, plots, and unlocks",
	}, s.handleStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sprout_achievements",
		Description: "List achievement progress and tiers",
	}, s.handleAchievements)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "sprout_history",
		Description: "List recently closed coding sessions",
	}, s.handleHistory)
}

func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         farmStatusURI,
		Name:        "sprout-farm-status",
		Description: "A snapshot of the farm grown from recent coding activity.",
		MIMEType:    "text/markdown",
	}, s.handleFarmResource)
}

func (s *Server) handleStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusInput) (*sdk.CallToolResult, StatusOutput, error) {
	farmState, _ := s.store.Load()
	return nil, statusOutput(s.cfg, farmState), nil
}

func (s *Server) handleAchievements(ctx context.Context, req *sdk.CallToolRequest, args AchievementsInput) (*sdk.CallToolResult, AchievementsOutput, error) {
	_, achState := s.store.Load()

	out := AchievementsOutput{}
	for _, def := range s.cfg.Achievements {
		prog := achState.Progress[def.ID]
		if prog == nil {
			prog = &achievements.Progress{ID: def.ID}
		}
		out.Achievements = append(out.Achievements, achievementSummary(def, prog))
	}
	return nil, out, nil
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (*sdk.CallToolResult, HistoryOutput, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	entries, err := s.hist.Recent(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("reading session history: %w", err)
	}

	out := HistoryOutput{}
	for _, e := range entries {
		out.Sessions = append(out.Sessions, SessionSummary{
			SessionID: string(e.SessionID),
			Project:   e.DisplayName,
			Start:     e.Start,
			End:       e.End,
			Duration:  e.Duration.String(),
		})
	}
	return nil, out, nil
}

// handleFarmResource renders the farm as markdown for context injection.
func (s *Server) handleFarmResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	farmState, _ := s.store.Load()
	status := statusOutput(s.cfg, farmState)

	var sb strings.Builder
	sb.WriteString("# Sprout Farm\n\n")
	fmt.Fprintf(&sb, "Total energy: %d\n\n", status.TotalEnergy)

	if len(status.Plots) == 0 {
		sb.WriteString("No plots unlocked yet.\n")
	} else {
		sb.WriteString("## Plots\n\n")
		for i, p := range status.Plots {
			if p.Crop == "" {
				fmt.Fprintf(&sb, "- plot %d: fallow\n", i+1)
				continue
			}
			fmt.Fprintf(&sb, "- plot %d: %s (stage %d/%d)\n", i+1, p.Crop, p.Stage+1, p.Stages)
		}
	}

	if len(status.UnlockedAnimals) > 0 {
		fmt.Fprintf(&sb, "\nAnimals: %s\n", strings.Join(status.UnlockedAnimals, ", "))
	}
	if len(status.UnlockedBuildings) > 0 {
		fmt.Fprintf(&sb, "Buildings: %s\n", strings.Join(status.UnlockedBuildings, ", "))
	}
	fmt.Fprintf(&sb, "\nLifetime harvests: %d\n", status.TotalHarvests)

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      farmStatusURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// statusOutput projects persisted farm state through the configured crop
// definitions.
func statusOutput(cfg *config.Config, state *farm.State) StatusOutput {
	crops := make(map[string]config.CropConfig, len(cfg.Crops))
	for _, c := range cfg.Crops {
		crops[c.ID] = c
	}

	out := StatusOutput{
		TotalEnergy:       state.TotalEnergy,
		UnlockedCrops:     state.UnlockedCrops,
		UnlockedAnimals:   state.UnlockedAnimals,
		UnlockedBuildings: state.UnlockedBuildings,
		MilestonesReached: state.MilestonesReached,
		TotalHarvests:     state.Stats.TotalHarvests,
		PeakConcurrency:   state.Stats.PeakConcurrency,
	}
	sort.Ints(out.MilestonesReached)

	for _, p := range state.Plots {
		summary := PlotSummary{Stage: p.Stage, Progress: p.GrowthProgress}
		if c, ok := crops[p.CropID]; ok {
			summary.Crop = c.Name
			summary.Stages = c.Stages
		}
		out.Plots = append(out.Plots, summary)
	}
	return out
}

// achievementSummary flattens one achievement's progress against its tiers.
func achievementSummary(def config.AchievementConfig, prog *achievements.Progress) AchievementSummary {
	summary := AchievementSummary{
		ID:    def.ID,
		Title: def.Title,
		Icon:  def.Icon,
		Tier:  "none",
		Value: prog.Value,
	}
	if prog.Tier > achievements.TierNone && int(prog.Tier) <= len(def.Tiers) {
		summary.Tier = def.Tiers[int(prog.Tier)-1].Name
	}
	if next := int(prog.Tier); next < len(def.Tiers) {
		summary.NextThreshold = def.Tiers[next].Threshold
	}
	return summary
}
