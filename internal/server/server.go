// Package server runs the gateway's HTTP listener
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"usps-gateway/internal/common/logging"
)

// Server represents an HTTP server
type Server struct {
	srv      *http.Server
	listener net.Listener
	errCh    chan error
}

// New creates a new server instance. writeTimeout should exceed the USPS
// timeout times the retry attempts so slow label calls are not cut off.
func New(handler http.Handler, port string, writeTimeout time.Duration) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       120 * time.Second,
		},
		errCh: make(chan error, 1),
	}
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; serve errors arrive on Errors.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	logging.Info("HTTP server listening", logging.Field{Key: "addr", Value: ln.Addr().String()})
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.errCh <- err
		}
		close(s.errCh)
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

// Errors delivers a serve failure and is closed when serving stops
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
