package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/agbru/picalc/internal/events"
	"github.com/agbru/picalc/internal/logging"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server serves /metrics and /healthz, and /ws when an event bus is set.
type Server struct {
	metrics    *Metrics
	logger     logging.Logger
	security   SecurityConfig
	bus        *events.Bus
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// Option customizes a Server.
type Option func(*Server)

// WithSecurityConfig overrides DefaultSecurityConfig.
func WithSecurityConfig(c SecurityConfig) Option {
	return func(s *Server) { s.security = c }
}

// WithEventBus streams the events of bus to websocket clients on /ws.
func WithEventBus(bus *events.Bus) Option {
	return func(s *Server) { s.bus = bus }
}

// New creates a server listening on addr once started.
func New(addr string, metrics *Metrics, logger logging.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	s := &Server{
		metrics:  metrics,
		logger:   logger,
		security: DefaultSecurityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", SecurityMiddleware(s.security, s.metricsMiddleware(s.handleMetrics)))
	mux.HandleFunc("/healthz", SecurityMiddleware(s.security, s.metricsMiddleware(s.handleHealth)))
	if s.bus != nil {
		// The status recorder hides http.Hijacker, so /ws is not wrapped.
		mux.Handle("/ws", websocket.Handler(s.handleEvents))
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.serveErr = make(chan error, 1)
	s.mu.Unlock()

	s.logger.Info("metrics server listening", logging.String("addr", ln.Addr().String()))
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	ch := s.serveErr
	s.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks in-flight and served requests.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		s.metrics.ObserveRequest(r.URL.Path, rec.code)
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.logger.Debug("rejected metrics request", logging.String("method", r.Method))
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.WritePrometheus(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// handleEvents forwards bus events as JSON frames until the client goes
// away or the bus is closed.
func (s *Server) handleEvents(ws *websocket.Conn) {
	defer func() { _ = ws.Close() }()
	// Clear the write deadline inherited from the HTTP server.
	_ = ws.SetDeadline(time.Time{})

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)
	s.logger.Debug("event client connected", logging.String("remote", ws.Request().RemoteAddr))

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var msg string
		for websocket.Message.Receive(ws, &msg) == nil {
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(ws, ev); err != nil {
				s.logger.Debug("event client write failed", logging.Err(err))
				return
			}
		case <-gone:
			return
		}
	}
}
