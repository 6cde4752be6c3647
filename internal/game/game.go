// Package game adapts a 2048 session to the tick-driven platform loop.
// Each tick consumes one input frame, applies its actions in the order they
// arrived and reports the resulting state. Render draws the board into a
// core.Screen.
package game

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/session"
)

// ID is the identifier scores are stored under.
const ID = "2048"

// Title is the display name.
const Title = "2048"

// Game implements the 2048 puzzle on top of a session.
type Game struct {
	sess     *session.Session
	shared   *session.Shared
	store    session.BestScoreStore
	logger   *log.Logger
	onFinish func(session.Snapshot)
	tick     uint64

	// Screen dimensions
	screenW int
	screenH int

	paused   bool
	tooSmall bool

	lastSpawn engine.Tile
	hasSpawn  bool
}

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the logger handed to the session.
func WithLogger(l *log.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithOnFinish registers fn to receive the final snapshot of every game
// that ends, either on game over or when a scored game is abandoned by a
// restart or by Finish. Each game is reported at most once.
func WithOnFinish(fn func(session.Snapshot)) Option {
	return func(g *Game) {
		g.onFinish = fn
	}
}

// New creates a game whose best score lives in store.
// A nil store keeps the best score in memory.
func New(store session.BestScoreStore, opts ...Option) *Game {
	g := &Game{
		store:  store,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the game identifier.
func (g *Game) ID() string {
	return ID
}

// Title returns the display name.
func (g *Game) Title() string {
	return Title
}

// Reset creates a fresh session seeded from cfg.Seed.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.sess = session.New(g.store, engine.NewRand(cfg.Seed), session.WithLogger(g.logger))
	g.shared = session.NewShared(g.sess, session.OnFinish(g.finished))
	g.tick = 0
	g.paused = false
	g.hasSpawn = false
	g.Resize(cfg.ScreenW, cfg.ScreenH)
}

// Resize updates the screen dimensions without touching the board.
func (g *Game) Resize(w, h int) {
	g.screenW = w
	g.screenH = h
	g.tooSmall = w < minScreenW || h < minScreenH
}

// Session exposes the underlying session.
func (g *Game) Session() *session.Session {
	return g.sess
}

// Finish reports the current game through WithOnFinish if it scored and
// has not been reported yet. The platform calls it when the player quits.
func (g *Game) Finish() {
	if g.shared != nil {
		g.shared.Finish()
	}
}

func (g *Game) finished(snap session.Snapshot) {
	if g.onFinish != nil {
		g.onFinish(snap)
	}
}

// directionOf maps move actions to board directions.
var directionOf = map[core.Action]engine.Direction{
	core.ActionUp:    engine.DirUp,
	core.ActionDown:  engine.DirDown,
	core.ActionLeft:  engine.DirLeft,
	core.ActionRight: engine.DirRight,
}

// Step advances the game by one tick, applying every action of the frame
// in arrival order.
//
// Restart is honoured in every state, including pause and a too-small
// window. Confirm starts a new game once the current one is over and Back
// resumes a paused game.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	g.tick++

	var res core.StepResult
	for _, a := range in.Order {
		g.apply(a, &res)
	}
	res.State = g.State()
	return res
}

func (g *Game) apply(a core.Action, res *core.StepResult) {
	if a == core.ActionRestart || (a == core.ActionConfirm && g.sess.Terminal()) {
		finished, _ := g.shared.Restart()
		g.paused = false
		g.hasSpawn = false
		g.logger.Debug("game restarted", "finished_score", finished)
		if !res.Restarted {
			res.Restarted = true
			res.FinishedScore = finished
		}
		return
	}

	if g.tooSmall {
		return
	}

	switch {
	case a == core.ActionPause:
		if !g.sess.Terminal() {
			g.paused = !g.paused
		}
	case a == core.ActionBack:
		g.paused = false
	case a.IsMove():
		if g.paused || g.sess.Terminal() {
			return
		}
		out, _ := g.shared.Move(directionOf[a])
		if out.Changed {
			g.lastSpawn, g.hasSpawn = out.Spawned, out.HasSpawn
		}
		if out.Terminal {
			g.logger.Info("game over", "score", g.sess.Score(), "max_tile", engine.MaxTile(out.Grid))
		}
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.sess.Score(),
		Best:     g.sess.Best(),
		GameOver: g.sess.Terminal(),
		Paused:   g.paused || g.tooSmall,
	}
}

// Controls returns the control hints for the game.
func (g *Game) Controls() string {
	return "Arrows/WASD/HJKL or swipe: Move | P: Pause | R: Restart | Tab: Scores | Q: Quit"
}
