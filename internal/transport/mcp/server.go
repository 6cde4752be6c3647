package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/game"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

const (
	serverName    = "t2048"
	serverVersion = "0.1.0"

	defaultScoreLimit = 10
)

const instructions = `2048 - MCP Interface

Slide numbered tiles on a 4x4 board. Tiles with equal values merge into their
sum when they collide, and the merged value is added to the score. After every
move that changes the board a new 2 (90%) or 4 (10%) appears in a random empty
cell. The game ends when the board is full and no neighbours are equal.

Use game_state to look at the board, move with a direction of up, down, left
or right, and restart to begin a new game.`

// Server hosts the MCP tools around one local game.
type Server struct {
	mcpServer *server.MCPServer
	game      *session.Shared
	store     *storage.Store
	logger    *log.Logger
}

// MoveResult is returned by the move tool.
type MoveResult struct {
	Direction  string           `json:"direction"`
	Changed    bool             `json:"changed"`
	ScoreDelta int              `json:"score_delta"`
	Spawned    *engine.Tile     `json:"spawned,omitempty"`
	State      session.Snapshot `json:"state"`
}

// New creates an MCP server with a fresh game. store may be nil.
func New(store *storage.Store, rng engine.Rand, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		store:  store,
		logger: logger,
	}

	var best session.BestScoreStore
	if store != nil {
		best = store
	}
	sess := session.New(best, rng, session.WithLogger(logger))
	s.game = session.NewShared(sess, session.OnFinish(s.recordGame))

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve runs the server on stdin and stdout until the client disconnects.
func (s *Server) Serve() error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score, best score and whether the game is over",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide all tiles in a direction. Moves that change nothing spawn no tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"direction": map[string]any{
					"type":        "string",
					"description": "Direction to slide",
					"enum":        []string{"up", "down", "left", "right"},
				},
			},
			Required: []string{"direction"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Abandon the current game and start a new one. The best score is kept",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleRestart)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "top_scores",
		Description: "List recorded games, highest score first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of entries (default 10)",
				},
			},
		},
	}, s.handleTopScores)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.game.Snapshot())
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := request.GetArguments()["direction"].(string)
	dir, ok := engine.ParseDirection(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown direction %q: use up, down, left or right", name)), nil
	}

	out, snap := s.game.Move(dir)
	result := MoveResult{
		Direction:  dir.String(),
		Changed:    out.Changed,
		ScoreDelta: out.Score,
		State:      snap,
	}
	if out.HasSpawn {
		spawned := out.Spawned
		result.Spawned = &spawned
	}
	return jsonResult(result)
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	finished, snap := s.game.Restart()
	return jsonResult(map[string]any{
		"finished_score": finished,
		"state":          snap,
	})
}

func (s *Server) handleTopScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := defaultScoreLimit
	if v, ok := request.GetArguments()["limit"].(float64); ok {
		if v < 1 {
			return mcp.NewToolResultError("limit must be at least 1"), nil
		}
		limit = int(v)
	}

	entries := []storage.ScoreEntry{}
	if s.store != nil {
		top, err := s.store.TopScores(game.ID, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries = append(entries, top...)
	}
	return jsonResult(map[string]any{
		"count":  len(entries),
		"scores": entries,
	})
}

func (s *Server) recordGame(snap session.Snapshot) {
	if s.store == nil || snap.Score <= 0 {
		return
	}
	if _, err := s.store.SaveScore(game.ID, storage.Result{
		Score:   snap.Score,
		MaxTile: snap.MaxTile,
		Moves:   snap.Moves,
	}); err != nil {
		s.logger.Error("failed to save score", "score", snap.Score, "error", err)
	}
}
