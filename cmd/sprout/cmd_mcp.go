package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Expose the farm over the Model Context Protocol so agents can read it.

Tools: sprout_status, sprout_achievements, sprout_history.
Resource: sprout://farm/status (markdown snapshot).

The server is read-only; it reads the state last saved by 'sprout run'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(cfg, version)
			if err != nil {
				return fmt.Errorf("starting MCP server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}
}
