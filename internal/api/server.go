// Package api is the loopback HTTP bridge a UI process uses to drive the
// event client: REST operations through huma on chi, plus an SSE stream of
// store and search changes.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domainerrors "github.com/eventdesk/eventdesk-client/internal/errors"
	"github.com/eventdesk/eventdesk-client/internal/http/response"
	"github.com/eventdesk/eventdesk-client/internal/sse"
)

// Options configures the bridge.
type Options struct {
	// AllowedOrigins lists the UI origins permitted by CORS.
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	router     *chi.Mux
	api        huma.API
	sseHandler *sse.Handler
	logger     *slog.Logger
}

// NewServer creates the bridge with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	s := &Server{
		services:   services,
		router:     router,
		sseHandler: sse.NewHandler(services.Broker, logger),
		logger:     logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("EventDesk Bridge", "1.0.0")
	// Bodies are enveloped, so no $schema links.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerStateRoutes()
	s.registerEventRoutes()
	s.registerInviteRoutes()
	s.registerSearchRoutes()
	s.registerAuthRoutes()

	router.Get("/api/v1/stream", s.sseHandler.ServeHTTP)
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// requestLogger logs each request at debug level once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("bridge request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireSession fails with 401 unless a user is signed in.
func (s *Server) requireSession() error {
	if s.services.Auth == nil || !s.services.Auth.Authenticated() {
		return huma.Error401Unauthorized("Authentication required")
	}
	return nil
}

// run executes fn as a tracked call. It is canceled when the request ends
// or the bridge shuts down.
func (s *Server) run(ctx context.Context, fn func(ctx context.Context) error) error {
	h, err := s.services.Calls.Go(fn)
	if err != nil {
		return toAPIError(domainerrors.Wrap(err, domainerrors.CodeInternal, "bridge is shutting down"))
	}
	stop := context.AfterFunc(ctx, h.Cancel)
	defer stop()

	if err := h.Wait(); err != nil {
		return toAPIError(err)
	}
	return nil
}
