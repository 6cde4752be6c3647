package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-2048/internal/game"
	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

var (
	flagScoresLimit       int
	flagScoresAll         bool
	flagScoresClear       bool
	flagScoresInteractive bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show recorded games",
	Long: `Display the highest recorded games.

Examples:
  t2048 scores
  t2048 scores --limit 25
  t2048 scores --all
  t2048 scores --interactive
  t2048 scores --clear`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of entries to show")
	scoresCmd.Flags().BoolVar(&flagScoresAll, "all", false, "Show every recorded game instead of the top --limit")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete all recorded games and the best score")
	scoresCmd.Flags().BoolVarP(&flagScoresInteractive, "interactive", "i", false, "Browse scores in a full-screen table")
}

func runScores(_ *cobra.Command, _ []string) error {
	// Open score storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening scores database: %w", err)
	}
	defer store.Close()

	if flagScoresClear {
		if err := store.ClearScores(game.ID); err != nil {
			return fmt.Errorf("clearing scores: %w", err)
		}
		fmt.Println("All scores cleared.")
		return nil
	}

	if flagScoresInteractive {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunScoreboard(store, width, height)
	}

	title := "High Scores"
	var scores []storage.ScoreEntry
	if flagScoresAll {
		title = "All Games"
		scores, err = store.AllScores(game.ID)
	} else {
		scores, err = store.TopScores(game.ID, flagScoresLimit)
	}
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	// Display scores
	fmt.Printf("%s - %s\n", title, game.Title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 't2048 play' to set the first high score!")
		return nil
	}

	// Print header
	fmt.Printf("  %-4s  %-10s  %-6s  %-6s  %s\n", "Rank", "Score", "Max", "Moves", "Date")
	fmt.Printf("  %-4s  %-10s  %-6s  %-6s  %s\n", "----", "-----", "---", "-----", "----")

	// Print scores
	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-10d  %-6d  %-6d  %s\n", i+1, entry.Score, entry.MaxTile, entry.Moves, dateStr)
	}

	// The best score also counts games that were never recorded, such as
	// ones still running when a server stopped.
	fmt.Println()
	if high, err := store.HighScore(game.ID); err == nil {
		fmt.Printf("Best recorded game: %d\n", high)
	}
	if best, err := store.GetInt(session.BestScoreKey); err == nil && best > 0 {
		fmt.Printf("Best: %d\n", best)
	}
	return nil
}
