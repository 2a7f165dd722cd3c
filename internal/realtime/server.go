package realtime

import (
	"context"
	"net/http"
)

// Server exposes the websocket endpoint and owns the hub.
type Server struct {
	hub *Hub
	mux *http.ServeMux
}

func NewServer() *Server {
	s := &Server{
		hub: NewHub(),
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/realtime", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.hub, w, r)
	})
	return s
}

// Hub returns the hub so it can be wired as an event publisher.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the hub dispatch loop until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
