// Package server exposes the changelog pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shiplog-io/shiplog/internal/changelog"
)

// Settings holds the listener configuration.
type Settings struct {
	Addr          string
	DefaultBranch string
	ShutdownGrace time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxBodyBytes  int64
}

// withDefaults fills unset fields.
func (s Settings) withDefaults() Settings {
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.DefaultBranch == "" {
		s.DefaultBranch = "main"
	}
	if s.ShutdownGrace <= 0 {
		s.ShutdownGrace = 10 * time.Second
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout <= 0 {
		// Generation calls an upstream model; responses can take a while.
		s.WriteTimeout = 2 * time.Minute
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = 1 << 20
	}
	return s
}

// Server wraps the HTTP listener and handlers for the changelog API.
type Server struct {
	settings Settings
	service  *changelog.Service
	logger   *log.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New prepares a server around the given pipeline service.
func New(settings Settings, service *changelog.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		settings: settings.withDefaults(),
		service:  service,
		logger:   logger,
	}
}

// Start binds the TCP listener and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", s.settings.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.settings.Addr, err)
	}
	s.listener = listener

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.server = srv

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("serve error: %v", err)
		}
	}()
	s.logger.Printf("listening on %s", listener.Addr())
	return nil
}

// Run serves until ctx is canceled, then drains in-flight requests for the
// configured grace period.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.settings.ShutdownGrace)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting new connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	return err
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
