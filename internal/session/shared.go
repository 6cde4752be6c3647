package session

import (
	"sync"

	"github.com/vovakirdan/tui-2048/internal/engine"
)

// Shared serializes access to one Session so that network handlers see the
// same one-command-at-a-time behaviour as the terminal event loop.
type Shared struct {
	mu       sync.Mutex
	sess     *Session
	recorded bool
	onFinish func(Snapshot)
	onChange func(Snapshot)
}

// SharedOption configures a Shared.
type SharedOption func(*Shared)

// OnFinish registers fn to be called once per game with its final snapshot:
// when the game reaches Terminal, or when a game with a positive score is
// abandoned by Restart or Finish. fn runs with the session lock held.
func OnFinish(fn func(Snapshot)) SharedOption {
	return func(sh *Shared) {
		sh.onFinish = fn
	}
}

// OnChange registers fn to be called with the new snapshot after every
// board-changing move, restart and SetGrid. fn runs with the session lock
// held, so calls arrive in the order the changes were applied.
func OnChange(fn func(Snapshot)) SharedOption {
	return func(sh *Shared) {
		sh.onChange = fn
	}
}

// NewShared wraps s.
func NewShared(s *Session, opts ...SharedOption) *Shared {
	sh := &Shared{sess: s}
	for _, opt := range opts {
		opt(sh)
	}
	return sh
}

// Move applies a move and returns the outcome with the resulting snapshot.
func (sh *Shared) Move(dir engine.Direction) (engine.MoveOutcome, Snapshot) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	out := sh.sess.Move(dir)
	snap := sh.sess.Snapshot()
	if !out.Changed {
		return out, snap
	}
	if out.Terminal {
		sh.finish(snap)
	}
	sh.changed(snap)
	return out, snap
}

// Restart starts a new game. The score of the abandoned game is returned so
// callers can report it.
func (sh *Shared) Restart() (finished int, snap Snapshot) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	finished = sh.sess.Score()
	if finished > 0 {
		sh.finish(sh.sess.Snapshot())
	}
	sh.sess.Restart()
	sh.recorded = false

	snap = sh.sess.Snapshot()
	sh.changed(snap)
	return finished, snap
}

// Finish reports the current game through OnFinish if it has scored and
// was not reported yet. Front ends call it when the player leaves.
func (sh *Shared) Finish() {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.sess.Score() > 0 {
		sh.finish(sh.sess.Snapshot())
	}
}

// Snapshot returns the current snapshot.
func (sh *Shared) Snapshot() Snapshot {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.sess.Snapshot()
}

// Sync calls fn with the current snapshot while holding the session lock.
// No change can be applied, and no OnChange call made, until fn returns.
func (sh *Shared) Sync(fn func(Snapshot)) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.sess.Snapshot())
}

// SetGrid replaces the board of the current game.
func (sh *Shared) SetGrid(g engine.Grid) Snapshot {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.sess.SetGrid(g)
	snap := sh.sess.Snapshot()
	sh.changed(snap)
	return snap
}

func (sh *Shared) finish(snap Snapshot) {
	if sh.recorded {
		return
	}
	sh.recorded = true
	if sh.onFinish != nil {
		sh.onFinish(snap)
	}
}

func (sh *Shared) changed(snap Snapshot) {
	if sh.onChange != nil {
		sh.onChange(snap)
	}
}
