package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/achievements"
	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/history"
	"github.com/sproutapp/sprout/internal/logging"
	"github.com/sproutapp/sprout/internal/persist"
	"github.com/sproutapp/sprout/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch transcript logs and grow the farm",
		Long: `Start the watcher. It discovers live Claude Code transcript logs under
the configured base directory, tails them, and feeds activity into the
simulation. State is saved continuously; Ctrl-C stops cleanly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				cfg, err = config.LoadFromFile(path)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			if base, _ := cmd.Flags().GetString("base"); base != "" {
				cfg.BaseDir = base
			}
			if data, _ := cmd.Flags().GetString("data"); data != "" {
				cfg.DataDir = data
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Logging.Level = level
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			eventLog := logging.NewEventLogger(cfg.DataDir, cfg.Logging.Level)

			store, err := persist.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}

			hist, err := history.Open(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}

			p := pipeline.New(cfg, logger, store, hist, eventLog)
			p.Notify = func(n achievements.Notification) {
				fmt.Printf("Achievement unlocked: %s (%s)\n", n.Title, n.TierName)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return p.Run(ctx)
		},
	}

	cmd.Flags().String("base", "", "Transcript base directory (overrides config)")
	cmd.Flags().String("data", "", "State directory (overrides config)")
	cmd.Flags().String("config", "", "Config file path (default <data>/config.yaml)")
	cmd.Flags().String("log-level", "", "Log level: info, debug, or trace")

	return cmd
}
