package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"kvittera/internal/indexing"
)

// Server hosts the REST API.
type Server struct {
	httpServer *http.Server
}

func NewServer(listen string, engine indexing.Service) *Server {
	mux := http.NewServeMux()
	NewHandler(engine).RegisterRoutes(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
		},
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("REST API listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("REST API server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
