// Package server exposes the generation pipeline over HTTP: project CRUD,
// themed form previews, exports and a live mock API per project.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/render/themes"
	"github.com/goliatone/go-journey360/pkg/renderers/html"
)

// Route prefixes.
const (
	MockPrefix   = "/mock/"
	AssetsPrefix = "/assets/themes/journey360/"
)

// Option customises the server.
type Option func(*Server)

// WithSelector overrides the theme selector used for previews.
func WithSelector(selector *themes.Selector) Option {
	return func(s *Server) {
		if selector != nil {
			s.selector = selector
		}
	}
}

// WithMockOptions applies options to every per-project mock API server.
func WithMockOptions(options ...mockapi.ServerOption) Option {
	return func(s *Server) {
		s.mockOptions = append(s.mockOptions, options...)
	}
}

// WithMaxUploadBytes caps multipart requirement uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithClock overrides the clock used for bundle timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is the journey360 HTTP API.
type Server struct {
	orch        *orchestrator.Orchestrator
	selector    *themes.Selector
	mockOptions []mockapi.ServerOption
	maxUpload   int64
	clock       func() time.Time
	logger      *zap.Logger

	mu    sync.Mutex
	mocks map[string]cachedMock
}

type cachedMock struct {
	version time.Time
	server  *mockapi.Server
}

// New builds a Server around an orchestrator. The orchestrator must have a
// store; project routes answer 500 otherwise.
func New(orch *orchestrator.Orchestrator, options ...Option) (*Server, error) {
	if orch == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	s := &Server{
		orch:      orch,
		maxUpload: input.MaxUploadBytes,
		clock:     time.Now,
		logger:    zap.NewNop(),
		mocks:     make(map[string]cachedMock),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.selector == nil {
		selector, err := themes.NewSelector(themes.DefaultTheme, themes.DefaultVariant)
		if err != nil {
			return nil, fmt.Errorf("server: theme selector: %w", err)
		}
		s.selector = selector
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET "+AssetsPrefix, http.StripPrefix(AssetsPrefix, http.FileServerFS(html.AssetsFS())))
	mux.HandleFunc("GET /api/themes", s.handleThemes)

	mux.HandleFunc("POST /api/projects", s.handleGenerate)
	mux.HandleFunc("GET /api/projects", s.handleList)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDelete)
	mux.HandleFunc("PUT /api/projects/{id}/schema", s.handleUpdateSchema)
	mux.HandleFunc("PUT /api/projects/{id}/preferences", s.handlePreferences)
	mux.HandleFunc("GET /api/projects/{id}/preview", s.handlePreview)
	mux.HandleFunc("GET /api/projects/{id}/bundle", s.handleBundle)
	mux.HandleFunc("GET /api/projects/{id}/openapi", s.handleOpenAPI)
	mux.HandleFunc("GET /api/projects/{id}/jsonschema", s.handleJSONSchema)
	mux.HandleFunc("GET /api/projects/{id}/docs", s.handleDocs)
	mux.HandleFunc("GET /api/projects/{id}/tests.go", s.handleGoTests)
	mux.HandleFunc("POST /api/projects/{id}/tests/run", s.handleRunTests)

	mux.HandleFunc(MockPrefix+"{id}/", s.handleMock)
	return s.logRequests(mux)
}

// Run serves on addr until ctx is done, then shuts down within grace.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener, grace)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener, grace time.Duration) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	<-errChan
	s.logger.Info("server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := s.clock()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if strings.HasPrefix(r.URL.Path, AssetsPrefix) || r.URL.Path == "/healthz" {
			return
		}
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", s.clock().Sub(started)),
		)
	})
}
