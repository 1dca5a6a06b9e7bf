// Package profiler serves pprof endpoints on the loopback interface.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
	log        zerolog.Logger
}

// New returns a server for port. Port 0 picks a free port.
func New(port int, log zerolog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port: port,
		log:  log.With().Str("component", "profiler").Logger(),
	}
}

// Start listens and serves in the background. It returns once the listener is
// bound, or with the error that stopped the server during startup.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	s.log.Info().Str("addr", listener.Addr().String()).Msg("profiler listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("profiler server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Debug().Msg("profiler shutting down")
	return s.httpServer.Shutdown(ctx)
}
