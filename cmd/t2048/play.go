package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/core"
	"github.com/vovakirdan/tui-2048/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play 2048 in this terminal",
	Long: `Start a game of 2048 in the current terminal.

Controls:
  Arrows/WASD/HJKL - Slide tiles
  Mouse drag       - Swipe in the drag direction
  P/Space          - Pause
  R/N              - Restart (any time)
  Enter            - New game after game over
  Esc/B            - Resume from pause
  Tab              - Scoreboard
  Ctrl+S           - Save a screenshot to ~/.t2048/screenshots
  Q/Ctrl+C         - Quit

The log is written to log.file (default ~/.t2048/t2048.log) because the game
owns the screen.

Examples:
  t2048 play
  t2048 play --seed 42
  t2048 play --fps 30`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func runPlay(_ *cobra.Command, _ []string) error {
	var logOut io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := config.OpenLogFile(cfg.Log.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			defer f.Close()
			logOut = f
		}
	}
	logger := newLogger(logOut)

	rc := core.DefaultConfig()
	if cfg.TickRate > 0 {
		rc.TickRate = cfg.TickRate
	}
	rc.Seed = cfg.Seed

	// Get terminal size early so the first frame is laid out correctly
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rc.ScreenW = w
		rc.ScreenH = h
	}

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	logger.Info("starting game", "width", rc.ScreenW, "height", rc.ScreenH, "seed", cfg.Seed)
	if err := tui.Run(store, rc, cfg.Input, logger); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}
