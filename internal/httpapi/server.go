package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/resources"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/search"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Catalog is the read side of posts.Catalog the handlers need.
type Catalog interface {
	All() []*interfaces.Post
	Get(slug string) (*interfaces.Post, error)
	GetInCategory(category, slug string) (*interfaces.Post, error)
	ByCategory(category string) []*interfaces.Post
	Uncategorized() []*interfaces.Post
	Tags() []string
	Categories() []posts.Category
	Category(slug string) (posts.Category, bool)
	LoadedAt() time.Time
}

var _ Catalog = (*posts.Catalog)(nil)

// IndexReader is the read side of the persistent post index.
type IndexReader interface {
	List(ctx context.Context, filter index.Filter) ([]*index.PostRecord, int, error)
	Get(ctx context.Context, slug string) (*index.PostRecord, error)
}

var _ IndexReader = (*index.Store)(nil)

// Dependencies are the services the routes read from.
type Dependencies struct {
	Catalog Catalog
	Search  *search.Searcher
	Feeds   *feeds.Builder
	URLs    *urls.Builder
	// Resources returns the current resource directory. The resource routes
	// answer 404 when it is nil or returns nil.
	Resources func() *resources.Directory
	// Index serves the /api/index routes when set.
	Index IndexReader
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNow overrides the clock used for feed timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server serves the blog JSON API and the feed endpoints.
type Server struct {
	cfg     runtimeconfig.ServerConfig
	deps    Dependencies
	logger  interfaces.Logger
	now     func() time.Time
	handler http.Handler
}

// NewServer builds the router. deps.Catalog is required.
func NewServer(cfg runtimeconfig.ServerConfig, deps Dependencies, opts ...Option) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.New("httpapi: catalog required")
	}
	if deps.Search == nil {
		deps.Search = search.New()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}).Handler)
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{slug}", s.handleGetPost)
		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/{category}/posts", s.handleListCategoryPosts)
		r.Get("/categories/{category}/posts/{slug}", s.handleGetCategoryPost)
		r.Get("/tags", s.handleListTags)
		r.Get("/resources", s.handleListResources)
		r.Get("/resources/{slug}", s.handleGetResource)
		if s.deps.Index != nil {
			r.Get("/index/posts", s.handleListIndexed)
			r.Get("/index/posts/{slug}", s.handleGetIndexed)
		}
	})

	if s.deps.Feeds != nil {
		r.Get("/rss", s.handleRSS)
		r.Get("/sitemap.xml", s.handleSitemap)
		r.Get("/robots.txt", s.handleRobots)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: r.URL.Path})
	})
	return r
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("http.server.started", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	if err != nil {
		s.logger.Error("http.server.shutdown_failed", "error", err)
		return err
	}
	s.logger.Info("http.server.stopped")
	return nil
}
