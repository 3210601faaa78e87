// Package server exposes the backend control surface to the shell UI over
// loopback HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sevir/botshell/internal/backend"
	"github.com/sevir/botshell/internal/history"
	"github.com/sevir/botshell/internal/locate"
)

// Server is the control HTTP server consumed by the shell's webview UI.
type Server struct {
	supervisor *backend.Supervisor
	probe      *backend.Probe
	locator    *locate.Locator
	journal    *history.Journal
	addr       string
	version    string
	commit     string
	httpServer *http.Server

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// Config holds server configuration.
type Config struct {
	Addr       string
	Supervisor *backend.Supervisor
	Probe      *backend.Probe
	Locator    *locate.Locator
	Journal    *history.Journal
	Version    string
	Commit     string
}

// New creates a new control server.
func New(cfg Config) *Server {
	s := &Server{
		supervisor: cfg.Supervisor,
		probe:      cfg.Probe,
		locator:    cfg.Locator,
		journal:    cfg.Journal,
		addr:       cfg.Addr,
		version:    cfg.Version,
		commit:     cfg.Commit,
		shutdownCh: make(chan struct{}),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.newGinEngine(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("control server starting on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ShutdownRequested is closed once the UI posts /api/shutdown (the window
// was destroyed); main waits on it alongside OS signals.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownCh
}
