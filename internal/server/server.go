// Package server exposes tracked versions over HTTP as JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/net/netutil"

	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/service"
)

// Server is the verse HTTP API.
type Server struct {
	tracker  *service.Tracker
	logger   log.Logger
	handler  http.Handler
	maxConns int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxConns caps simultaneously accepted connections. Zero means no
// limit.
func WithMaxConns(n int) Option {
	return func(s *Server) {
		s.maxConns = n
	}
}

// New builds the API server for tracker.
func New(tracker *service.Tracker, opts ...Option) (*Server, error) {
	s := &Server{
		tracker: tracker,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /projects/{$}", s.handleListProjects)
	mux.HandleFunc("GET /projects/{project}/{$}", s.handleProjectLatest)
	mux.HandleFunc("GET /projects/{project}/major/{$}", s.handleProjectMajor)
	mux.HandleFunc("GET /projects/{project}/minor/{$}", s.handleProjectMinor)
	mux.HandleFunc("GET /gh/{owner}/{repo}/{$}", s.handleGitHubLatest)
	mux.HandleFunc("GET /gh/{owner}/{repo}/major/{$}", s.handleGitHubMajor)
	mux.HandleFunc("GET /gh/{owner}/{repo}/minor/{$}", s.handleGitHubMinor)

	gzip, err := gzhttp.NewWrapper(gzhttp.MinSize(512))
	if err != nil {
		return nil, fmt.Errorf("configuring gzip: %w", err)
	}
	s.handler = s.logRequests(gzip(mux))
	return s, nil
}

// Handler returns the root handler, compression and logging included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("serving", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
