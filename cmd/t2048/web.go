package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-2048/internal/api"
	"github.com/vovakirdan/tui-2048/internal/engine"
)

var (
	flagWebAddr   string
	flagStaticDir string
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the HTTP and websocket server",
	Long: `Serve one shared game over HTTP.

Endpoints:
  GET  /api/state     - Current board and scores
  POST /api/move      - {"direction": "up|down|left|right"}
  POST /api/restart   - Start a new game
  GET  /api/scores    - Recorded games (?limit=N)
  GET  /ws            - Websocket: state pushed after every change,
                        accepts {"action": "move", "direction": "left"}

Examples:
  t2048 web
  t2048 web --addr :9090 --static ./web`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagWebAddr, "addr", ":8080", "HTTP listen address (host:port)")
	webCmd.Flags().StringVar(&flagStaticDir, "static", "", "Directory of static files served at /")
}

func runWeb(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Web.Address = flagWebAddr
	}
	if flags.Changed("static") {
		cfg.Web.StaticDir = flagStaticDir
	}

	logger := newLogger(os.Stderr)

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	server := api.NewServer(store, engine.NewRand(seed()),
		api.WithLogger(logger),
		api.WithStaticDir(cfg.Web.StaticDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Web.Address); err != nil {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
