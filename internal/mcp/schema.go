// Package mcp provides an MCP (Model Context Protocol) server for sprout.
package mcp

import "time"

// StatusInput defines the input for the sprout_status tool.
type StatusInput struct{}

// StatusOutput defines the output for the sprout_status tool.
type StatusOutput struct {
	TotalEnergy       int           `json:"total_energy" jsonschema:"description=Lifetime energy earned"`
	Plots             []PlotSummary `json:"plots" jsonschema:"description=Current plot contents"`
	UnlockedCrops     []string      `json:"unlocked_crops"`
	UnlockedAnimals   []string      `json:"unlocked_animals"`
	UnlockedBuildings []string      `json:"unlocked_buildings"`
	MilestonesReached []int         `json:"milestones_reached"`
	TotalHarvests     int           `json:"total_harvests"`
	PeakConcurrency   int           `json:"peak_concurrency"`
}

// PlotSummary is one plot's visible state.
type PlotSummary struct {
	Crop     string `json:"crop,omitempty" jsonschema:"description=Crop name, empty when fallow"`
	Stage    int    `json:"stage"`
	Stages   int    `json:"stages,omitempty" jsonschema:"description=Total stages for the planted crop"`
	Progress int    `json:"progress"`
}

// AchievementsInput defines the input for the sprout_achievements tool.
type AchievementsInput struct{}

// AchievementsOutput defines the output for the sprout_achievements tool.
type AchievementsOutput struct {
	Achievements []AchievementSummary `json:"achievements"`
}

// AchievementSummary is one achievement's progress.
type AchievementSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Icon          string `json:"icon,omitempty"`
	Tier          string `json:"tier" jsonschema:"description=Highest tier reached, or 'none'"`
	Value         int    `json:"value"`
	NextThreshold int    `json:"next_threshold,omitempty" jsonschema:"description=Threshold of the next tier, 0 when maxed"`
}

// HistoryInput defines the input for the sprout_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum sessions to return (default: 10)"`
}

// HistoryOutput defines the output for the sprout_history tool.
type HistoryOutput struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionSummary is one closed session.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Project   string    `json:"project"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Duration  string    `json:"duration"`
}
