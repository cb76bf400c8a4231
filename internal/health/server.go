package health

import (
	"context"
	"net/http"

	"github.com/john/guildlog/internal/logging"
)

// Server provides the liveness endpoint and metrics
type Server struct {
	server *http.Server
}

// New creates a new health check server. metrics may be nil.
func New(addr string, metrics http.Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Discord Logger Bot is running!"))
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Handler exposes the routes for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	logging.Info("Web server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down web server...")
	return s.server.Shutdown(ctx)
}
