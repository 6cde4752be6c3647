package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/game"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// newCallToolRequest builds a tool call request with arguments.
func newCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()

	store, err := storage.Open(storage.MemoryPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(store, engine.NewRand(3), nil), store
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil {
		t.Fatal("expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()

	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), target); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestNewConfiguresServer(t *testing.T) {
	s, _ := newTestServer(t)
	if s.MCPServer() == nil {
		t.Fatal("expected configured MCP server")
	}
}

func TestServeRequiresConfiguredServer(t *testing.T) {
	var s *Server
	if err := s.Serve(); err == nil {
		t.Fatal("expected error for nil server")
	}
	if err := (&Server{}).Serve(); err == nil {
		t.Fatal("expected error for unconfigured server")
	}
}

func TestGameState(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleGameState(context.Background(), newCallToolRequest("game_state", nil))
	if err != nil {
		t.Fatalf("game_state: %v", err)
	}

	var snap session.Snapshot
	decodeResult(t, result, &snap)
	if n := engine.CountTiles(snap.Grid); n != 2 {
		t.Errorf("new game has %d tiles, want 2", n)
	}
}

func TestMove(t *testing.T) {
	s, _ := newTestServer(t)
	s.game.SetGrid(engine.Grid{{2, 2, 4, 0}})

	result, err := s.handleMove(context.Background(), newCallToolRequest("move", map[string]any{"direction": "left"}))
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	var res MoveResult
	decodeResult(t, result, &res)
	if !res.Changed || res.ScoreDelta != 4 {
		t.Errorf("changed=%v delta=%d, want true and 4", res.Changed, res.ScoreDelta)
	}
	if res.State.Grid[0][0] != 4 || res.State.Grid[0][1] != 4 {
		t.Errorf("row 0 = %v, want [4 4 ...]", res.State.Grid[0])
	}
	if res.Spawned == nil {
		t.Error("expected a spawned tile")
	}
}

func TestMoveRejectsUnknownDirection(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing", map[string]any{}},
		{"unknown", map[string]any{"direction": "north"}},
		{"wrong type", map[string]any{"direction": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleMove(context.Background(), newCallToolRequest("move", tt.args))
			if err != nil {
				t.Fatalf("move: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, result))
			}
		})
	}
}

func TestRestartRecordsAbandonedGame(t *testing.T) {
	s, store := newTestServer(t)
	s.game.SetGrid(engine.Grid{{8, 8, 0, 0}})
	s.handleMove(context.Background(), newCallToolRequest("move", map[string]any{"direction": "right"}))

	result, err := s.handleRestart(context.Background(), newCallToolRequest("restart", nil))
	if err != nil {
		t.Fatalf("restart: %v", err)
	}

	var res struct {
		FinishedScore int              `json:"finished_score"`
		State         session.Snapshot `json:"state"`
	}
	decodeResult(t, result, &res)
	if res.FinishedScore != 16 {
		t.Errorf("finished_score = %d, want 16", res.FinishedScore)
	}
	if res.State.Score != 0 || res.State.Best != 16 {
		t.Errorf("score=%d best=%d, want 0 and 16", res.State.Score, res.State.Best)
	}

	high, err := store.HighScore(game.ID)
	if err != nil {
		t.Fatalf("HighScore: %v", err)
	}
	if high != 16 {
		t.Errorf("recorded high score = %d, want 16", high)
	}
}

func TestTopScores(t *testing.T) {
	s, store := newTestServer(t)
	for _, score := range []int{40, 80, 20} {
		store.SaveScore(game.ID, storage.Result{Score: score})
	}

	result, err := s.handleTopScores(context.Background(), newCallToolRequest("top_scores", map[string]any{"limit": float64(2)}))
	if err != nil {
		t.Fatalf("top_scores: %v", err)
	}

	var res struct {
		Count  int                  `json:"count"`
		Scores []storage.ScoreEntry `json:"scores"`
	}
	decodeResult(t, result, &res)
	if res.Count != 2 {
		t.Fatalf("count = %d, want 2", res.Count)
	}
	if res.Scores[0].Score != 80 || res.Scores[1].Score != 40 {
		t.Errorf("scores = %d, %d, want 80, 40", res.Scores[0].Score, res.Scores[1].Score)
	}

	result, _ = s.handleTopScores(context.Background(), newCallToolRequest("top_scores", map[string]any{"limit": float64(0)}))
	if !result.IsError {
		t.Error("limit 0 should be rejected")
	}
}
