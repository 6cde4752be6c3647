// t2048 is the 2048 sliding-tile puzzle for the terminal, SSH, the browser
// and MCP clients.
//
// Usage:
//
//	t2048 play              - Play in this terminal
//	t2048 serve             - Start SSH server for remote play
//	t2048 web               - Start HTTP and websocket server
//	t2048 mcp               - Serve MCP tools on stdio
//	t2048 scores            - Show recorded games
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 60)
//	--seed <value>      - Set RNG seed for reproducible gameplay
//	--db <path>         - Set database path (default: ~/.t2048/scores.db)
//	--config <path>     - Read configuration from this YAML file
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagLogLevel   string
	flagDotEnvFile string

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "t2048",
	Short: "2048 - slide and merge tiles in your terminal",
	Long: `t2048 is the 2048 sliding-tile puzzle.

Slide the board up, down, left or right. Equal tiles merge into their sum and
the merged value is added to your score. The game ends when the board is full
and nothing can merge.

Available commands:
  play     - Play in this terminal
  serve    - Start SSH server for remote play
  web      - Start HTTP and websocket server
  mcp      - Serve MCP tools on stdio
  scores   - View recorded games

Configuration is read from --config, ~/.t2048/config.yaml or
./configs/t2048.yaml, then overridden by T2048_* environment variables
(a .env file is loaded first) and finally by flags.

Examples:
  t2048 play
  t2048 play --seed 42
  t2048 serve --ssh :2222
  t2048 web --addr :8080
  t2048 scores`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.t2048/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagDotEnvFile, "env-file", "", "Load environment from this file instead of ./.env")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(scoresCmd)
}

// loadConfig resolves the configuration: file, then environment, then flags.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var envFiles []string
	if flagDotEnvFile != "" {
		envFiles = append(envFiles, flagDotEnvFile)
	}
	if _, err := config.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("fps") {
		loaded.TickRate = flagFPS
	}
	if flags.Changed("seed") {
		loaded.Seed = flagSeed
	}
	if flags.Changed("db") {
		loaded.DBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = flagLogLevel
	}

	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer) *log.Logger {
	logger, err := config.NewLogger(cfg.Log, w, "t2048")
	if err != nil {
		// Validate already checked the level
		return log.New(w)
	}
	return logger
}

// openStore opens the score database. The game still works without it, so a
// failure is logged and nil returned.
func openStore(logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open scores database, scores will not be saved", "path", cfg.DBPath, "error", err)
		return nil
	}
	return store
}

// seed returns the configured seed, or a time-based one when unset.
func seed() int64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}
