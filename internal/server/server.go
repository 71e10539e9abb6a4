package server

import (
	"context"
	"net/http"
	"time"

	"github.com/lzhoang/userbase-be/internal/auth"
	"github.com/lzhoang/userbase-be/internal/config"
	"github.com/lzhoang/userbase-be/internal/directory"
	"github.com/lzhoang/userbase-be/internal/http/handlers"
	"github.com/lzhoang/userbase-be/internal/http/respond"
	"github.com/lzhoang/userbase-be/internal/middleware"
	"github.com/lzhoang/userbase-be/internal/password"
	"github.com/lzhoang/userbase-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Routes builds the full API handler over the given store. Split out from New
// so tests can serve it with httptest.
func Routes(cfg config.Config, store storage.UserStore) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}
	users := directory.New(store, password.NewHasher(cfg.BcryptCost))
	guard := middleware.NewGuard(tokens, users)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(users, tokens).Register(mux)
	handlers.NewUserHandler(users).Register(mux, guard)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux)), nil
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore) (*Server, error) {
	handler, err := Routes(cfg, store)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
