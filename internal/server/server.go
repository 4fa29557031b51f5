package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/martagil/gestor-be/internal/auth"
	"github.com/martagil/gestor-be/internal/config"
	"github.com/martagil/gestor-be/internal/http/handlers"
	"github.com/martagil/gestor-be/internal/middleware"
	"github.com/martagil/gestor-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *zap.Logger) *Server {
	router := mux.NewRouter()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authn := middleware.NewAuthenticator(tokens, store, logger)

	handlers.NewHealthHandler(time.Now()).Register(router)
	handlers.NewAuthHandler(store, tokens, logger).Register(router)
	handlers.NewUserHandler(store, logger).Register(router, authn)
	handlers.NewProjectHandler(store, logger).Register(router, authn)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, router))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
