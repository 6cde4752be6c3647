package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the game as MCP tools on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout.

Tools: game_state, move, restart, top_scores.

Logs go to stderr so they do not interfere with the protocol.

Example client configuration:
  {"command": "t2048", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(_ *cobra.Command, _ []string) error {
	logger := newLogger(os.Stderr)

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	server := mcp.New(store, engine.NewRand(seed()), logger)
	logger.Info("serving MCP on stdio")
	return server.Serve()
}
