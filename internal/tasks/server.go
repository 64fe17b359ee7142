package tasks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

// shutdownTimeout bounds how long in-flight requests may finish
const shutdownTimeout = 5 * time.Second

// DevServer serves the dist directory over HTTP. It is started by the
// server:init task and stops when that task's context is cancelled.
type DevServer struct {
	fs      afero.Fs
	dist    string
	cfg     config.ServerConfig
	metrics http.Handler
	logger  *logging.Logger

	mu     sync.Mutex
	addr   net.Addr
	server *http.Server
	done   chan struct{}
}

// NewDevServer creates a server for dist. metrics may be nil.
func NewDevServer(fsys afero.Fs, dist string, cfg config.ServerConfig, metrics http.Handler, logger *logging.Logger) *DevServer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &DevServer{
		fs:      fsys,
		dist:    dist,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.WithTask(ServerInit),
	}
}

// Handler returns the HTTP handler: files from dist, plus /metrics when enabled.
func (s *DevServer) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.cfg.Metrics && s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	httpFs := afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.dist))
	mux.Handle("/", http.FileServer(httpFs.Dir("/")))
	return mux
}

// Start binds the listener and serves in the background. It returns once
// the listener is bound; the server shuts down when ctx is done.
func (s *DevServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("server already running on %s", s.addr)
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.cfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	s.server = srv
	s.addr = ln.Addr()
	s.done = done

	s.logger.Info("serving", "addr", s.addr.String(), "dir", s.dist)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", "error", err)
		}

		s.mu.Lock()
		s.server = nil
		s.mu.Unlock()
		close(done)
	}()

	return nil
}

// Addr returns the bound address, or nil when the server is not running.
func (s *DevServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	return s.addr
}

// Running reports whether the server is serving.
func (s *DevServer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

// Done returns a channel closed once the server has shut down. It is nil
// if the server was never started.
func (s *DevServer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// NewServerInit returns the server:init action for srv.
func NewServerInit(srv *DevServer) orchestrator.Action {
	return srv.Start
}
