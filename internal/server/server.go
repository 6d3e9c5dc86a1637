package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"voicematch/internal/api"
	"voicematch/internal/compare"
	"voicematch/internal/config"
	"voicematch/internal/history"
	"voicematch/internal/logging"
)

// MaintenanceInterval is the period between work-dir sweeps and history prunes.
const MaintenanceInterval = time.Hour

// Options carries process metadata surfaced by /api/status.
type Options struct {
	Version string
	// Bind overrides cfg.Paths.APIBind when set.
	Bind string
}

// Server serves the HTTP API and enforces single-instance execution.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	compare    *compare.Service
	store      *history.Store
	historySvc *api.HistoryService
	opts       Options

	lock      *flock.Flock
	startedAt time.Time
	inFlight  atomic.Int64

	mu       sync.Mutex
	running  bool
	listener net.Listener
	http     *http.Server
	cancel   context.CancelFunc
	done     chan struct{}
}

// New constructs a Server. store may be nil when history is disabled.
func New(cfg *config.Config, svc *compare.Service, store *history.Store, logger *slog.Logger, opts Options) (*Server, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("server requires config and compare service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		compare:   svc,
		store:     store,
		opts:      opts,
		lock:      flock.New(cfg.LockPath()),
		startedAt: time.Now(),
	}
	if store != nil {
		s.historySvc = api.NewHistoryService(store, cfg.Matching.ScorePrecision)
	}
	return s, nil
}

func (s *Server) bind() string {
	if bind := strings.TrimSpace(s.opts.Bind); bind != "" {
		return bind
	}
	return strings.TrimSpace(s.cfg.Paths.APIBind)
}

// Start acquires the instance lock, begins listening, and launches the
// maintenance loop. The server shuts down when ctx is cancelled or Stop is
// called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	if err := os.MkdirAll(s.cfg.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another voicematch server instance is already running")
	}

	listener, err := net.Listen("tcp", s.bind())
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.listener = listener
	s.cancel = cancel
	s.done = make(chan struct{})
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}
	s.running = true

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check api_bind and restart the server"),
			)
		}
	}()
	go s.maintenanceLoop(runCtx)
	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
		close(s.done)
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.cfg.LockPath()),
		logging.EventType("server_started"),
	)
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Running reports whether the server is accepting requests.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stop shuts the listener down and releases the instance lock.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.listener = nil
	s.mu.Unlock()

	cancel()
	<-done
	if err := s.lock.Unlock(); err != nil {
		logging.WarnWithContext(s.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if the next start fails"),
		)
	}
	s.logger.Info("api server stopped", logging.EventType("server_stopped"))
}

// Close stops the server and closes the history store.
func (s *Server) Close() error {
	s.Stop()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Wait blocks until the server has shut down after Start.
func (s *Server) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
