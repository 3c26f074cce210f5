package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/broadside-gg/broadside/internal/history"
	"github.com/broadside-gg/broadside/internal/session"
)

// Server wraps the HTTP server and mux for the coordinator API.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// NewServer creates an API server wired with all routes. hist may be nil
// when the match archive is disabled.
func NewServer(
	listenAddress string,
	port int,
	apiMaxBodyBytes int64,
	readTimeout time.Duration,
	reg *session.Registry,
	hist *history.Service,
) *Server {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", HandleHealthz())

	mux.Handle("POST /api/host", HandleHost(reg))
	mux.Handle("POST /api/join", HandleJoin(reg))
	mux.Handle("POST /api/reconnect", HandleJoin(reg))
	mux.Handle("POST /api/place_ships", HandlePlaceShips(reg))
	mux.Handle("POST /api/attack", HandleAttack(reg))
	mux.Handle("GET /api/gamestate", HandleGameState(reg))

	mux.Handle("POST /api/quick_match", HandleQuickMatch(reg))
	mux.Handle("POST /api/cancel_quick_match", HandleCancelQuickMatch(reg))
	mux.Handle("POST /api/check_quick_match", HandleCheckQuickMatch(reg))
	mux.Handle("GET /api/quick_matches", HandleListQuickMatches(reg))
	mux.Handle("POST /api/spectate", HandleSpectate(reg))

	mux.Handle("GET /api/history", HandleHistory(hist))

	handler := RecoverMiddleware(RequestBodyLimitMiddleware(apiMaxBodyBytes, mux))

	srv := &http.Server{
		Addr:        net.JoinHostPort(listenAddress, strconv.Itoa(port)),
		Handler:     handler,
		ReadTimeout: readTimeout,
	}

	return &Server{
		httpServer: srv,
		handler:    handler,
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
