package server

import (
	"context"
	"net/http"
	"time"

	"footprint/internal/insight"
	"footprint/internal/session"
)

// Server encapsulates the HTTP server of the application, providing controlled startup and shutdown.
type Server struct {
	server *http.Server
}

// ListenAndServe starts the HTTP server and blocks until it is stopped.
// After Shutdown the method returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, letting active requests complete
// within the deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// NewServer creates and configures a new server instance.
//
// Parameters:
// - address: address and port to listen on (e.g., "127.0.0.1:8080").
// - static: path to directory with static files to be served.
// - sessionCookie: name of cookie identifying the visitor's session.
// - sessions: repository of live tracking sessions.
// - insights: generator of insight texts.
// - metrics: handler for /metrics, nil to disable.
func NewServer(
	address string,
	static string,
	sessionCookie string,
	sessions *session.SessionsRepository,
	insights *insight.Generator,
	metrics http.Handler,
) *Server {
	router := NewApiV1Router(static, sessionCookie, sessions, insights, metrics)
	s := Server{&http.Server{
		Addr:           address,
		Handler:        router.Mux(),
		ReadTimeout:    time.Second * 3,
		WriteTimeout:   time.Second * 3,
		MaxHeaderBytes: 1024 * 10,
	}}

	return &s
}
