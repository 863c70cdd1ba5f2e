// Package config provides unified configuration loading for sprout.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all sprout configuration settings.
type Config struct {
	// BaseDir is the root of the transcript tree, one subdirectory per project.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// DataDir holds sprout's own state: state.json, history.db, events.jsonl.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Points maps an activity event type to its base energy value.
	// Unknown event types are worth zero.
	Points map[string]int `json:"points" yaml:"points"`

	Collaboration CollaborationConfig `json:"collaboration" yaml:"collaboration"`
	Crops         []CropConfig        `json:"crops" yaml:"crops"`
	PlotBatches   []PlotBatchConfig   `json:"plot_batches" yaml:"plot_batches"`
	Animals       []UnlockConfig      `json:"animals" yaml:"animals"`
	Buildings     []UnlockConfig      `json:"buildings" yaml:"buildings"`

	// Milestones are cumulative-energy thresholds, ascending.
	Milestones []int `json:"milestones" yaml:"milestones"`

	Achievements []AchievementConfig `json:"achievements" yaml:"achievements"`
	Intervals    IntervalConfig      `json:"intervals" yaml:"intervals"`
	Liveness     LivenessConfig      `json:"liveness" yaml:"liveness"`

	// TailLookback is how many trailing bytes of a freshly discovered log
	// are read on the first poll.
	TailLookback int64 `json:"tail_lookback" yaml:"tail_lookback"`

	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures sprout's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" additionally mirrors activity events to <data>/events.jsonl.
	Level string `json:"level" yaml:"level"`
}

// CollaborationConfig rewards concurrent sessions.
type CollaborationConfig struct {
	// Threshold is the minimum concurrent session count for the multiplier.
	Threshold int `json:"threshold" yaml:"threshold"`
	// Multiplier scales energy while at or above Threshold.
	Multiplier int `json:"multiplier" yaml:"multiplier"`
}

// CropConfig describes one plantable crop.
type CropConfig struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// GrowCost is the growth needed to advance one stage.
	GrowCost int `json:"grow_cost" yaml:"grow_cost"`
	// Stages is the number of visual stages from planted to mature.
	Stages int `json:"stages" yaml:"stages"`
	// UnlockAt is the cumulative energy threshold that unlocks the crop.
	UnlockAt int `json:"unlock_at" yaml:"unlock_at"`
}

// PlotBatchConfig unlocks a batch of plots at an energy threshold.
type PlotBatchConfig struct {
	Count    int `json:"count" yaml:"count"`
	UnlockAt int `json:"unlock_at" yaml:"unlock_at"`
}

// UnlockConfig is a generic threshold-gated unlockable (animal or building).
type UnlockConfig struct {
	ID       string `json:"id" yaml:"id"`
	UnlockAt int    `json:"unlock_at" yaml:"unlock_at"`
}

// TierConfig is one rank of an achievement.
type TierConfig struct {
	Name      string `json:"name" yaml:"name"`
	Threshold int    `json:"threshold" yaml:"threshold"`
}

// AchievementConfig defines one achievement and its ordered tiers.
type AchievementConfig struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Icon  string `json:"icon" yaml:"icon"`
	// Tracker is the update semantics: "counter", "max", or "flag".
	Tracker string       `json:"tracker" yaml:"tracker"`
	Tiers   []TierConfig `json:"tiers" yaml:"tiers"`
}

// IntervalConfig holds the pipeline's timer periods.
type IntervalConfig struct {
	Discovery    time.Duration `json:"discovery" yaml:"discovery"`
	Poll         time.Duration `json:"poll" yaml:"poll"`
	NotifyFlush  time.Duration `json:"notify_flush" yaml:"notify_flush"`
	Autosave     time.Duration `json:"autosave" yaml:"autosave"`
	ReplantDelay time.Duration `json:"replant_delay" yaml:"replant_delay"`
}

// LivenessConfig controls which sessions count as live.
type LivenessConfig struct {
	// Window is the maximum mtime age for discovery to report a session.
	Window time.Duration `json:"window" yaml:"window"`
	// InactivityTimeout removes a session that has produced no tailed bytes,
	// independent of file mtime.
	InactivityTimeout time.Duration `json:"inactivity_timeout" yaml:"inactivity_timeout"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		BaseDir: filepath.Join(home, ".claude", "projects"),
		DataDir: filepath.Join(home, ".sprout"),
		Points: map[string]int{
			"tool_use":      2,
			"thinking":      1,
			"text":          1,
			"bash_progress": 1,
			"mcp_progress":  1,
			"user":          3,
		},
		Collaboration: CollaborationConfig{Threshold: 3, Multiplier: 2},
		Crops: []CropConfig{
			{ID: "turnip", Name: "Turnip", GrowCost: 10, Stages: 4, UnlockAt: 0},
			{ID: "carrot", Name: "Carrot", GrowCost: 18, Stages: 4, UnlockAt: 150},
			{ID: "pumpkin", Name: "Pumpkin", GrowCost: 30, Stages: 5, UnlockAt: 500},
			{ID: "sunflower", Name: "Sunflower", GrowCost: 45, Stages: 5, UnlockAt: 1200},
			{ID: "starfruit", Name: "Starfruit", GrowCost: 70, Stages: 6, UnlockAt: 3000},
		},
		PlotBatches: []PlotBatchConfig{
			{Count: 3, UnlockAt: 0},
			{Count: 3, UnlockAt: 400},
			{Count: 3, UnlockAt: 1500},
			{Count: 3, UnlockAt: 4000},
		},
		Animals: []UnlockConfig{
			{ID: "chicken", UnlockAt: 250},
			{ID: "cat", UnlockAt: 800},
			{ID: "cow", UnlockAt: 2000},
		},
		Buildings: []UnlockConfig{
			{ID: "coop", UnlockAt: 600},
			{ID: "barn", UnlockAt: 1800},
			{ID: "windmill", UnlockAt: 5000},
		},
		Milestones: []int{100, 500, 1500, 4000, 10000},
		Achievements: []AchievementConfig{
			{
				ID: "deep_work", Title: "Deep Work", Icon: "brain", Tracker: "counter",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 10}, {Name: "silver", Threshold: 50}, {Name: "gold", Threshold: 200}},
			},
			{
				ID: "busy_hands", Title: "Busy Hands", Icon: "files", Tracker: "max",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 5}, {Name: "silver", Threshold: 15}, {Name: "gold", Threshold: 40}},
			},
			{
				ID: "wordsmith", Title: "Wordsmith", Icon: "scroll", Tracker: "max",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 10000}, {Name: "silver", Threshold: 50000}, {Name: "gold", Threshold: 200000}},
			},
			{
				ID: "long_haul", Title: "The Long Haul", Icon: "clock", Tracker: "max",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 30}, {Name: "silver", Threshold: 120}, {Name: "gold", Threshold: 360}},
			},
			{
				ID: "early_bird", Title: "Early Bird", Icon: "sunrise", Tracker: "counter",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 3}, {Name: "silver", Threshold: 10}, {Name: "gold", Threshold: 30}},
			},
			{
				ID: "night_owl", Title: "Night Owl", Icon: "moon", Tracker: "counter",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 3}, {Name: "silver", Threshold: 10}, {Name: "gold", Threshold: 30}},
			},
			{
				ID: "marathon", Title: "Marathon", Icon: "flame", Tracker: "flag",
				Tiers: []TierConfig{{Name: "gold", Threshold: 1}},
			},
			{
				ID: "green_thumb", Title: "Green Thumb", Icon: "sprout", Tracker: "max",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 10}, {Name: "silver", Threshold: 50}, {Name: "gold", Threshold: 200}},
			},
			{
				ID: "architect", Title: "Architect", Icon: "hammer", Tracker: "max",
				Tiers: []TierConfig{{Name: "bronze", Threshold: 1}, {Name: "silver", Threshold: 2}, {Name: "gold", Threshold: 3}},
			},
		},
		Intervals: IntervalConfig{
			Discovery:    10 * time.Second,
			Poll:         2 * time.Second,
			NotifyFlush:  time.Second,
			Autosave:     30 * time.Second,
			ReplantDelay: 8 * time.Second,
		},
		Liveness: LivenessConfig{
			Window:            5 * time.Minute,
			InactivityTimeout: 10 * time.Minute,
		},
		TailLookback: 64 * 1024,
		Logging:      LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> <data>/config.yaml -> environment variables.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(cfg.DataDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		fileCfg, loadErr := LoadFromFile(path)
		if loadErr != nil {
			return nil, fmt.Errorf("loading config file: %w", loadErr)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// Fields absent from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Collaboration.Threshold < 1 {
		return fmt.Errorf("collaboration threshold must be >= 1, got %d", c.Collaboration.Threshold)
	}
	if c.Collaboration.Multiplier < 1 {
		return fmt.Errorf("collaboration multiplier must be >= 1, got %d", c.Collaboration.Multiplier)
	}
	if len(c.Crops) == 0 {
		return fmt.Errorf("at least one crop is required")
	}
	for _, crop := range c.Crops {
		if crop.GrowCost <= 0 {
			return fmt.Errorf("crop %s: grow_cost must be positive, got %d", crop.ID, crop.GrowCost)
		}
		if crop.Stages < 2 {
			return fmt.Errorf("crop %s: stages must be >= 2, got %d", crop.ID, crop.Stages)
		}
	}
	if len(c.PlotBatches) == 0 || c.PlotBatches[0].UnlockAt != 0 {
		return fmt.Errorf("the first plot batch must unlock at 0")
	}
	if !sort.IntsAreSorted(c.Milestones) {
		return fmt.Errorf("milestones must be ascending")
	}
	validTrackers := map[string]bool{"counter": true, "max": true, "flag": true}
	for _, a := range c.Achievements {
		if !validTrackers[a.Tracker] {
			return fmt.Errorf("achievement %s: invalid tracker %q (valid: counter, max, flag)", a.ID, a.Tracker)
		}
		if len(a.Tiers) == 0 || len(a.Tiers) > 3 {
			return fmt.Errorf("achievement %s: needs 1-3 tiers, got %d", a.ID, len(a.Tiers))
		}
		for i := 1; i < len(a.Tiers); i++ {
			if a.Tiers[i].Threshold <= a.Tiers[i-1].Threshold {
				return fmt.Errorf("achievement %s: tier thresholds must be strictly ascending", a.ID)
			}
		}
	}
	for _, d := range []time.Duration{c.Intervals.Discovery, c.Intervals.Poll, c.Intervals.NotifyFlush, c.Intervals.Autosave} {
		if d <= 0 {
			return fmt.Errorf("all intervals must be positive")
		}
	}
	if c.Liveness.Window <= 0 || c.Liveness.InactivityTimeout <= 0 {
		return fmt.Errorf("liveness window and inactivity timeout must be positive")
	}
	if c.TailLookback < 0 {
		return fmt.Errorf("tail_lookback must be non-negative, got %d", c.TailLookback)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPROUT_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("SPROUT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SPROUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
