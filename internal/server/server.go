package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultAddr is the default address of the API server.
	DefaultAddr = ":8080"

	DefaultReadHeaderTimeout = 10 * time.Second
	// Schedule requests wait on the model and the calendar.
	DefaultWriteTimeout = 2 * time.Minute
	DefaultIdleTimeout  = 60 * time.Second
)

// HTTPServer runs the API.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	listenAddr chan string
}

// NewHTTPServer creates a server for handler on addr.
func NewHTTPServer(addr string, handler http.Handler) *HTTPServer {
	if addr == "" {
		addr = DefaultAddr
	}
	return &HTTPServer{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		listenAddr: make(chan string, 1),
	}
}

// Start blocks serving requests until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listenAddr <- ln.Addr().String()
	slog.Info("starting API server", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// ListenAddr waits for Start to bind and returns the bound address.
func (s *HTTPServer) ListenAddr(ctx context.Context) (string, error) {
	select {
	case addr := <-s.listenAddr:
		s.listenAddr <- addr
		return addr, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	slog.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
