package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"bsrbot/internal/logging"
)

// Server serves /metrics until its context ends.
type Server struct {
	bind    string
	handler http.Handler
	logger  *slog.Logger
}

// NewServer constructs a metrics listener on bind.
func NewServer(bind string, prom *Prom, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	return &Server{
		bind:    bind,
		handler: mux,
		logger:  logging.NewComponentLogger(logger, "metrics"),
	}
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return err
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("metrics listening", logging.String("address", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
