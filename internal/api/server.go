// Package api serves one shared 2048 session over HTTP and websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/game"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
	"github.com/vovakirdan/tui-2048/internal/transport/websocket"
)

const (
	defaultScoreLimit = 10

	// maxBodySize bounds request bodies; commands are tiny JSON objects.
	maxBodySize = 1 << 10
)

// Server is the REST and websocket front end for a shared session.
type Server struct {
	game      *session.Shared
	store     *storage.Store
	hub       *websocket.Hub
	router    *mux.Router
	logger    *log.Logger
	staticDir string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStaticDir serves files from dir for every path outside /api and /ws.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// NewServer creates a server around a fresh session. store may be nil, in
// which case the best score lives in memory and no scores are recorded.
func NewServer(store *storage.Store, rng engine.Rand, opts ...Option) *Server {
	s := &Server{
		store:  store,
		router: mux.NewRouter(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	var best session.BestScoreStore
	if store != nil {
		best = store
	}
	sess := session.New(best, rng, session.WithLogger(s.logger))
	s.hub = websocket.NewHub(s.handleCommand, s.logger.WithPrefix("ws"))
	s.game = session.NewShared(sess,
		session.OnFinish(s.recordGame),
		session.OnChange(s.hub.BroadcastState),
	)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/move", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/restart", s.handleRestart).Methods(http.MethodPost)
	api.HandleFunc("/scores", s.handleScores).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the websocket hub. It must be running before any command is
// applied, since every change is broadcast through it.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// ListenAndServe runs the hub and the HTTP server on addr until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// MoveRequest is the body of POST /api/move.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// MoveResponse reports the result of a move.
type MoveResponse struct {
	Changed    bool             `json:"changed"`
	ScoreDelta int              `json:"score_delta"`
	Spawned    *engine.Tile     `json:"spawned,omitempty"`
	State      session.Snapshot `json:"state"`
}

// RestartResponse reports the abandoned score and the new game.
type RestartResponse struct {
	FinishedScore int              `json:"finished_score"`
	State         session.Snapshot `json:"state"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.game.Snapshot())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.move(req.Direction)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.restart())
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := defaultScoreLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries := []storage.ScoreEntry{}
	if s.store != nil {
		top, err := s.store.TopScores(game.ID, limit)
		if err != nil {
			s.logger.Error("failed to load scores", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load scores")
			return
		}
		entries = append(entries, top...)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(entries),
		"scores": entries,
	})
}

// handleWebSocket registers the client while holding the session lock so
// its first message is the current board and every later change reaches it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	client, err := s.hub.Upgrade(w, r)
	if err != nil {
		return
	}
	s.game.Sync(func(snap session.Snapshot) {
		s.hub.Register(client, websocket.Message{Event: websocket.EventState, State: &snap})
	})
}

// handleCommand applies a command received over the websocket. Accepted
// commands are broadcast to every client, so only errors are replied to the
// sender.
func (s *Server) handleCommand(cmd websocket.Command) *websocket.Message {
	switch cmd.Action {
	case "move":
		if _, err := s.move(cmd.Direction); err != nil {
			return &websocket.Message{Event: websocket.EventError, Error: err.Error()}
		}
	case "restart":
		s.restart()
	case "state":
		snap := s.game.Snapshot()
		return &websocket.Message{Event: websocket.EventState, State: &snap}
	default:
		return &websocket.Message{Event: websocket.EventError, Error: "unknown action: " + cmd.Action}
	}
	return nil
}

var errUnknownDirection = errors.New("unknown direction")

func (s *Server) move(name string) (MoveResponse, error) {
	dir, ok := engine.ParseDirection(name)
	if !ok {
		return MoveResponse{}, errUnknownDirection
	}

	out, snap := s.game.Move(dir)
	resp := MoveResponse{
		Changed:    out.Changed,
		ScoreDelta: out.Score,
		State:      snap,
	}
	if out.HasSpawn {
		spawned := out.Spawned
		resp.Spawned = &spawned
	}

	if out.Changed {
		s.logger.Debug("move", "direction", dir, "score", snap.Score, "terminal", snap.Terminal)
	}
	return resp, nil
}

func (s *Server) restart() RestartResponse {
	finished, snap := s.game.Restart()
	s.logger.Info("game restarted", "finished_score", finished)
	return RestartResponse{FinishedScore: finished, State: snap}
}

// recordGame stores a finished game. It is called by the shared session at
// most once per game.
func (s *Server) recordGame(snap session.Snapshot) {
	if s.store == nil || snap.Score <= 0 {
		return
	}
	_, err := s.store.SaveScore(game.ID, storage.Result{
		Score:   snap.Score,
		MaxTile: snap.MaxTile,
		Moves:   snap.Moves,
	})
	if err != nil {
		s.logger.Error("failed to save score", "score", snap.Score, "error", err)
		return
	}
	s.logger.Info("game recorded", "score", snap.Score, "max_tile", snap.MaxTile, "moves", snap.Moves)
}
