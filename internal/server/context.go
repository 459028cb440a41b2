package server

import (
	"context"
	"maps"
	"sync"
)

// ServerContext holds the lifetime and identity of a running server.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	version  string
	services map[string]bool
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context. services maps a dependency name
// such as "gmail" or "calendar" to whether it is configured.
func NewServerContext(ctx context.Context, version string, services map[string]bool) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		version:  version,
		services: maps.Clone(services),
	}
}

// Context is cancelled on Shutdown. Background work started by handlers
// should derive from it rather than from the request.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Version() string {
	return sc.version
}

// Services returns a copy of the configured services.
func (sc *ServerContext) Services() map[string]bool {
	return maps.Clone(sc.services)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
