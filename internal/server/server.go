package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/auth"
	"github.com/hongminglow/fruit-scanner-be/internal/config"
	"github.com/hongminglow/fruit-scanner-be/internal/http/handlers"
	"github.com/hongminglow/fruit-scanner-be/internal/middleware"
	"github.com/hongminglow/fruit-scanner-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, analyzer handlers.Analyzer, log *logrus.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, store, analyzer, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Covers classification plus a retried nutrition lookup.
		WriteTimeout: cfg.NutritionTimeout*time.Duration(cfg.NutritionRetries+1) + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     newServerErrorLog(log),
	}

	return &Server{inner: httpServer}
}

// Routes builds the full handler chain. It is exported for in-process tests.
func Routes(cfg config.Config, store storage.UserStore, analyzer handlers.Analyzer, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	requireUser := middleware.RequireUser(auth.NewGate(tokens, store), log)

	handlers.NewHealthHandler(time.Now(), cfg.Classifier, log).Register(mux)
	handlers.NewAuthHandler(store, tokens, log).Register(mux, requireUser)
	handlers.NewDetectionHandler(analyzer, cfg.MaxUploadSize, log).Register(mux, requireUser)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.CORS(cfg.CORSOrigins),
	)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
