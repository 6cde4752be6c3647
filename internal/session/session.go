// Package session holds the mutable state of one 2048 game: the board, the
// running score, the best score and the Active/Terminal state machine.
//
// A Session is not safe for concurrent use. Callers that share one session
// between goroutines wrap it in a Shared.
package session

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/engine"
)

// State is the session lifecycle state.
type State int

const (
	StateActive State = iota
	StateTerminal
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Session owns the board and all per-game bookkeeping.
type Session struct {
	grid    engine.Grid
	state   State
	score   int
	best    int
	moves   int
	spawner *engine.Spawner
	store   BestScoreStore
	logger  *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for best-score persistence warnings.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session seeded with two tiles.
// The best score is read from store once; a failed read counts as zero.
// A nil store keeps the best score in memory only.
func New(store BestScoreStore, rng engine.Rand, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}

	s := &Session{
		spawner: engine.NewSpawner(rng),
		store:   store,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	best, err := store.GetInt(BestScoreKey)
	if err != nil {
		s.logger.Warn("could not read best score", "key", BestScoreKey, "error", err)
		best = 0
	}
	s.best = best

	s.Restart()
	return s
}

// Restart replaces the board with a freshly seeded one and returns to the
// Active state. The best score is kept.
func (s *Session) Restart() {
	s.grid = engine.NewGrid(s.spawner)
	s.state = StateActive
	s.score = 0
	s.moves = 0
}

// Move applies a move in the given direction.
//
// Moves are ignored once the session is Terminal. A move that does not
// change the board spawns nothing, scores nothing and causes no state
// transition.
func (s *Session) Move(dir engine.Direction) engine.MoveOutcome {
	if s.state == StateTerminal {
		return engine.MoveOutcome{Grid: s.grid}
	}

	out := engine.Move(s.grid, dir, s.spawner)
	if !out.Changed {
		return out
	}

	s.grid = out.Grid
	s.score += out.Score
	s.moves++
	s.recordBest()

	if out.Terminal {
		s.state = StateTerminal
	}
	return out
}

// recordBest writes the score through to the store when it beats the stored
// best. Write failures are logged and otherwise ignored.
func (s *Session) recordBest() {
	if s.score <= s.best {
		return
	}

	// Another session sharing the store may have raised the record.
	if stored, err := s.store.GetInt(BestScoreKey); err == nil && stored > s.best {
		s.best = stored
		if s.score <= s.best {
			return
		}
	}

	s.best = s.score
	if err := s.store.SetInt(BestScoreKey, s.best); err != nil {
		s.logger.Warn("could not save best score", "score", s.best, "error", err)
	}
}

// Grid returns a copy of the board.
func (s *Session) Grid() engine.Grid {
	return s.grid
}

// Score returns the score of the current game.
func (s *Session) Score() int {
	return s.score
}

// Best returns the best score known to this session.
func (s *Session) Best() int {
	return s.best
}

// Moves returns the number of accepted moves in the current game.
func (s *Session) Moves() int {
	return s.moves
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Terminal reports whether no further move is possible.
func (s *Session) Terminal() bool {
	return s.state == StateTerminal
}

// SetGrid replaces the board and recomputes the state.
// Used by tests and tooling that need a specific position.
func (s *Session) SetGrid(g engine.Grid) {
	s.grid = g
	s.state = StateActive
	if engine.IsTerminal(g) {
		s.state = StateTerminal
	}
}

// Snapshot is a read-only copy of the session for rendering and transport.
type Snapshot struct {
	Grid     engine.Grid `json:"grid"`
	Score    int         `json:"score"`
	Best     int         `json:"best"`
	Moves    int         `json:"moves"`
	MaxTile  int         `json:"max_tile"`
	State    string      `json:"state"`
	Terminal bool        `json:"terminal"`
}

// Snapshot returns the current session snapshot.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Grid:     s.grid,
		Score:    s.score,
		Best:     s.best,
		Moves:    s.moves,
		MaxTile:  engine.MaxTile(s.grid),
		State:    s.state.String(),
		Terminal: s.state == StateTerminal,
	}
}
