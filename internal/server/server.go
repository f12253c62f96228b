package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/server/handler"
	"github.com/alanyoungcy/cfbspreads/internal/server/middleware"
	"github.com/alanyoungcy/cfbspreads/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateWindow. Zero disables
	// limiting, as does a nil limiter.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Archives is nil when object storage is disabled.
type Handlers struct {
	Health   *handler.HealthHandler
	Status   *handler.StatusHandler
	Ingest   *handler.IngestHandler
	Slates   *handler.SlateHandler
	Mappings *handler.MappingHandler
	Audit    *handler.AuditHandler
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API over the ingested slates.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, rate limit) and attaches the
// WebSocket hub when one is given.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Ingestion.
	mux.HandleFunc("POST /api/ingest/trigger", handlers.Ingest.Trigger)
	mux.HandleFunc("GET /api/ingest/runs", handlers.Ingest.ListRuns)

	// Slates.
	mux.HandleFunc("GET /api/slates/{season}/{week}/games", handlers.Slates.GetGames)

	// Team mappings.
	mux.HandleFunc("GET /api/team-mappings", handlers.Mappings.List)
	mux.HandleFunc("POST /api/team-mappings", handlers.Mappings.Override)

	mux.HandleFunc("GET /api/audit", handlers.Audit.List)

	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives/{season}/{week}", handlers.Archives.List)
		mux.HandleFunc("GET /api/archives/{season}/{week}/{run}", handlers.Archives.Payloads)
	}

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(h)
	}
	h = middleware.Logging(logger, "/api/health")(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
