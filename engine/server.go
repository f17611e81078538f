package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"neonsnake.io/highscore"
)

// Version can be set before starting the server.
var Version = "1.0.0"

var ErrServerRunning = errors.New("engine: server already running")

const shutdownGrace = 5 * time.Second

// Server wraps a Game instance with an HTTP/WebSocket server.
type Server struct {
	Game      *Game
	Scores    highscore.Store
	StaticDir string // optional; served at / when set

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	err     error
}

// NewServer creates a new server with the given game configuration.
func NewServer(cfg GameConfig, scores highscore.Store) *Server {
	return &Server{
		Game:   NewGame(cfg, scores),
		Scores: scores,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(s.Game.cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		HandleWS(s.Game, w, r)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		HandleStats(s.Game, w, r)
	})

	mux.Handle("/api/highscores", highscore.Handler{Store: s.Scores})

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if s.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.StaticDir)))
	}

	return mux
}

func (s *Server) logStartup(addr string) {
	log.Printf("Neon Snake server v%s starting...", Version)
	log.Printf("Listening on http://%s", addr)
	log.Printf("WebSocket: ws://%s%s", addr, s.Game.cfg.Path)
	log.Printf("Stats: http://%s/stats", addr)
	if s.StaticDir != "" {
		log.Printf("Serving static files from %s", s.StaticDir)
	}
}

// Serve runs the game loop and the HTTP server on ln until ctx is cancelled
// or either of them fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if limit := s.Game.cfg.MaxConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}
	httpServer := &http.Server{Handler: s.Handler()}
	s.logStartup(ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Game.Run(ctx)
	})
	g.Go(func() error {
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("engine: http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		// Hijacked WebSocket connections are closed by the game loop.
		return httpServer.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	log.Printf("Server stopped")
	return err
}

// Run listens on addr and serves until ctx is cancelled (blocks).
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// ListenAndServe serves on all interfaces at port (blocks until error).
func (s *Server) ListenAndServe(port int) error {
	return s.Run(context.Background(), fmt.Sprintf("0.0.0.0:%d", port))
}

// Start starts the game loop and HTTP server in the background (non-blocking).
func (s *Server) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrServerRunning
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go func() {
		err := s.Serve(ctx, ln)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.stopped)
	}()
	return nil
}

// Stop gracefully shuts down a server started with Start.
func (s *Server) Stop() error {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-stopped

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// GetStatsJSON returns the current game stats as a JSON string.
func (s *Server) GetStatsJSON() string {
	snap, ok := s.Game.GetStats()
	if !ok {
		return "{}"
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "{}"
	}
	return string(b)
}
