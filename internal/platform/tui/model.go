package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/game"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// Model is the Bubble Tea model for one player's game.
type Model struct {
	game       *game.Game
	screen     *core.Screen
	store      *storage.Store
	config     core.RuntimeConfig
	inputFrame core.InputFrame
	gameState  core.GameState
	keyMapper  *KeyMapper
	mouse      *MouseMapper
	logger     *log.Logger
	scoreboard *ScoreboardModel // Non-nil while the scoreboard is open
	quitting   bool
}

// NewModel creates a model with a fresh game. store may be nil, in which case
// the best score lives in memory and nothing is recorded.
func NewModel(store *storage.Store, cfg core.RuntimeConfig, in config.InputConfig, logger *log.Logger) Model {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return Model{
		game:       game.New(bestStore(store), game.WithLogger(logger), game.WithOnFinish(scoreRecorder(store, logger))),
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		store:      store,
		config:     cfg,
		inputFrame: core.NewInputFrame(),
		keyMapper:  NewKeyMapper(),
		mouse:      NewMouseMapper(in.SwipeThreshold, in.UnitsPerColumn, in.UnitsPerRow),
		logger:     logger,
	}
}

// bestStore avoids handing the session a typed nil.
func bestStore(store *storage.Store) session.BestScoreStore {
	if store == nil {
		return nil
	}
	return store
}

// Init initializes the model and starts the game.
func (m Model) Init() tea.Cmd {
	m.game.Reset(m.config)
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.scoreboard != nil {
		return m.updateScoreboard(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if action, ok := m.mouse.MapMouse(msg); ok {
			m.inputFrame.Set(action)
		}
		return m, nil

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		m.saveScreenshot()
		return m, nil
	case "tab":
		m.mouse.Cancel()
		sb := NewScoreboardModel(m.store, m.config.ScreenW, m.config.ScreenH)
		m.scoreboard = &sb
		return m, nil
	}

	if m.keyMapper.MapKeyToFrame(msg, &m.inputFrame) {
		return m.quit()
	}
	return m, nil
}

// updateScoreboard routes messages to the open scoreboard. Ticks keep the
// loop alive but do not advance the game.
func (m Model) updateScoreboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		return m, tickCmd(m.config.TickRate)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}

	next, cmd := m.scoreboard.Update(msg)
	sb, _ := next.(ScoreboardModel)

	switch {
	case sb.IsQuitting():
		return m.quit()
	case sb.IsGoingBack():
		m.scoreboard = nil
		return m, nil
	}

	m.scoreboard = &sb
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.game.Finish()
	m.quitting = true
	return m, tea.Quit
}

// handleResize keeps the board and only changes the layout.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.resize(msg.Width, msg.Height)
	return m, nil
}

func (m *Model) resize(w, h int) {
	m.config.ScreenW = w
	m.config.ScreenH = h
	m.screen.Resize(w, h)
	m.game.Resize(w, h)
	m.mouse.Cancel()
}

// handleTick processes simulation ticks. Every action queued since the
// last tick is applied in arrival order.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	result := m.game.Step(m.inputFrame)
	m.gameState = result.State

	m.inputFrame.Clear()
	return m, tickCmd(m.config.TickRate)
}

// scoreRecorder returns the callback that saves each finished game.
// Games that never scored are skipped.
func scoreRecorder(store *storage.Store, logger *log.Logger) func(session.Snapshot) {
	return func(snap session.Snapshot) {
		if store == nil || snap.Score == 0 {
			return
		}
		_, err := store.SaveScore(game.ID, storage.Result{
			Score:   snap.Score,
			MaxTile: snap.MaxTile,
			Moves:   snap.Moves,
		})
		if err != nil {
			logger.Warn("could not save score", "score", snap.Score, "error", err)
			return
		}
		logger.Debug("score saved", "score", snap.Score, "max_tile", snap.MaxTile, "moves", snap.Moves)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.game.Render(m.screen)

	dir := config.UserPath("screenshots")
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.Warn("could not create screenshot directory", "error", err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", game.ID, timestamp))

	snap := m.game.Snapshot()
	header := fmt.Sprintf("# %s tick=%d state=%s score=%d best=%d max=%d moves=%d\n",
		game.Title, snap.Tick, snap.State, snap.Session.Score, snap.Session.Best, snap.Session.MaxTile, snap.Session.Moves)

	if err := os.WriteFile(path, []byte(header+m.screen.String()), 0o600); err != nil {
		m.logger.Warn("could not save screenshot", "error", err)
		return
	}
	m.logger.Info("screenshot saved", "path", path, "state", snap.State)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.scoreboard != nil {
		return m.scoreboard.View()
	}

	m.game.Render(m.screen)
	return RenderScreen(m.screen)
}

// Run starts the Bubble Tea program with a new model.
func Run(store *storage.Store, cfg core.RuntimeConfig, in config.InputConfig, logger *log.Logger) error {
	model := NewModel(store, cfg, in, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
