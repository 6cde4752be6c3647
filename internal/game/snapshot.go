package game

import (
	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/session"
)

// StateType names the state shown to the player.
type StateType string

const (
	StatePlaying     StateType = "playing"
	StatePaused      StateType = "paused"
	StateGameOver    StateType = "game_over"
	StatePausedSmall StateType = "paused_small_window"
)

// Snapshot captures the complete game state for determinism testing and replay.
type Snapshot struct {
	Tick    uint64
	Session session.Snapshot
	State   StateType

	// LastSpawn is the tile added by the most recent accepted move.
	LastSpawn engine.Tile
	HasSpawn  bool
}

// Snapshot returns the current game snapshot.
func (g *Game) Snapshot() Snapshot {
	state := StatePlaying
	switch {
	case g.tooSmall:
		state = StatePausedSmall
	case g.sess.Terminal():
		state = StateGameOver
	case g.paused:
		state = StatePaused
	}

	return Snapshot{
		Tick:      g.tick,
		Session:   g.sess.Snapshot(),
		State:     state,
		LastSpawn: g.lastSpawn,
		HasSpawn:  g.hasSpawn,
	}
}
