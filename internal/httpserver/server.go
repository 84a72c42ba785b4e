package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Timeouts applied to every server. Uploads stream large multipart bodies,
// so the write timeout is generous while header reads stay tight.
const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 2 * time.Minute
)

// ShutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests before the process exits anyway.
const ShutdownTimeout = 10 * time.Second

// Server owns the HTTP listener lifecycle.
type Server struct {
	inner *http.Server
}

// New builds a server bound to the given port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Start blocks serving traffic until the listener closes. A clean shutdown
// is reported as a nil error so callers only see real failures.
func (s *Server) Start() error {
	if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
