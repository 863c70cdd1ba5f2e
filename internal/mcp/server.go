package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/history"
	"github.com/sproutapp/sprout/internal/persist"
)

// Server wraps the MCP SDK server and exposes read-only views of the farm.
// It reads the last persisted state on every call; the running pipeline
// remains the only writer.
type Server struct {
	server *sdk.Server
	cfg    *config.Config
	store  *persist.Store
	hist   *history.Store
}

// NewServer creates an MCP server over the persisted sprout state.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	store, err := persist.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	hist, err := history.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    "sprout",
		Version: version,
	}, &sdk.ServerOptions{})

	s := &Server{
		server: mcpServer,
		cfg:    cfg,
		store:  store,
		hist:   hist,
	}
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport. Blocks until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.hist.Close()
	return err
}

// Close releases the server's resources.
func (s *Server) Close() error {
	return s.hist.Close()
}
