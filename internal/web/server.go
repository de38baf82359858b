// Package web provides the HTTP server and handlers for the data cleaner UI
// and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/datacleaner/internal/config"
	"github.com/JonMunkholm/datacleaner/internal/core"
	webmw "github.com/JonMunkholm/datacleaner/internal/web/middleware"
	"github.com/JonMunkholm/datacleaner/internal/web/templates"
)

//go:embed static
var staticFiles embed.FS

// multipartMemory is how much of a multipart body is kept in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// Server is the HTTP server for the data cleaner.
type Server struct {
	cfg         *config.Config
	service     *core.Service
	metrics     *core.Metrics
	rateLimiter *webmw.RateLimiter
	router      *chi.Mux
	server      *http.Server

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a Server. metrics may be nil, in which case /metrics
// is not mounted.
func NewServer(cfg *config.Config, service *core.Service, metrics *core.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		metrics: metrics,
		router:  chi.NewRouter(),
		done:    make(chan struct{}),
	}
	if cfg.Rate.Enabled {
		s.rateLimiter = webmw.NewRateLimiter(webmw.RateLimitConfig{
			RequestsPerSecond: cfg.Rate.RPS,
			Burst:             cfg.Rate.Burst,
		})
		s.rateLimiter.Reject = func(w http.ResponseWriter, r *http.Request, _ time.Duration) {
			s.respondError(w, r, core.ErrRateLimited)
		}
		go s.rateLimiter.Run(s.done, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(webmw.SecurityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Operational endpoints are not rate limited.
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Middleware)
		}

		// Pages
		r.Get("/", s.handleIndex)
		r.Post("/upload", s.handleUpload)
		r.Get("/files", s.handleWorkspace)
		r.Get("/files/{fileID}", s.handleFile)
		r.Get("/files/{fileID}/download", s.handleDownload)
		r.Post("/files/{fileID}/discard", s.handleDiscard)
		r.Delete("/files/{fileID}", s.handleDelete)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.cfg.Security.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
				ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
				MaxAge:         300,
			}))
			r.Post("/process", s.handleAPIProcess)
			r.Post("/convert", s.handleAPIConvert)
		})
	})
}

// Start listens on the configured address. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx
// ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) pageMeta() templates.PageMeta {
	return templates.PageMeta{Title: s.cfg.UI.Title, Wide: s.cfg.UI.Wide}
}
