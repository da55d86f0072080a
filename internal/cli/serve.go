package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/khanglvm/piece-hub/internal/mcp"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
//
// The server exposes 2 tools via stdio transport:
// - pieces_search, pieces_categories
func NewServeCmd(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the piece-hub server using stdio transport.

This server exposes 2 tools to AI clients:
  • pieces_search     - Find pieces, and optionally their actions and triggers
  • pieces_categories - List category tags with piece counts

The catalog is loaded once at startup. Searches are recorded in the local
search history unless it is disabled.`,
		Example: `  # Run directly
  piece-hub serve

  # Serve a specific catalog
  piece-hub --catalog ./pieces.json serve

  # Add to Claude Code
  claude mcp add pieces -- piece-hub serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	return cmd
}

// runServe starts the MCP server with stdio transport and signal handling.
// Implements graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
func runServe(opts *GlobalOptions) error {
	env, err := loadEnvironment(opts)
	if err != nil {
		return err
	}

	tracker, stopHistory := newTracker(env.cfg)
	server := mcp.NewServer(env.engine, env.pieces, tracker)

	log.Info().Int("pieces", len(env.pieces)).Msg("serving piece catalog on stdio")

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	// Run server in separate goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	// Wait for either signal or server error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

		err := server.Close()
		stopHistory()
		if err != nil {
			log.Error().Err(err).Msg("error during shutdown")
			return err
		}

		log.Info().Msg("shutdown complete")
		return nil

	case err := <-errChan:
		// Run returned (stdin closed or error); still release resources
		if closeErr := server.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error during cleanup")
		}
		stopHistory()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
