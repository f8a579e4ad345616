package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/padel-games/padelbot/internal/logging"
)

// Server wraps a bound listener so that port allocation errors surface at
// construction time rather than inside the serving goroutine.
type Server struct {
	listener net.Listener
}

func New(port string) (*Server, error) {
	addr := fmt.Sprintf(":%s", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("creating listener on %s: %w", addr, err)
	}

	return &Server{listener: listener}, nil
}

// ServeHTTP serves srv on the bound listener until ctx is cancelled, then
// drains with a short grace period.
func (s *Server) ServeHTTP(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Infof("server.Serve: context closed")
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()

		errCh <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}

	return nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// HandleHealth responds 200 while the process context is alive.
func HandleHealth(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
}
