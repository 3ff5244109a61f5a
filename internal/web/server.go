// Package web exposes the rig controller over a local HTTP API with a
// websocket stream of state snapshots.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/chaz8081/turntable-remote/internal/rig"
)

// Remote is the part of the rig controller the web surface drives.
type Remote interface {
	Snapshot() rig.Snapshot
	Subscribe() (<-chan rig.Snapshot, func())
	SetMode(text string) error
	SetNumOfPhoto(text string) error
	SetAngle(text string) error
	SetTimeInterval(text string) error
	ToggleCameraState() (rig.CameraState, error)
	Rescan() bool
}

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server for addr driving remote.
func NewServer(addr string, remote Remote) *Server {
	return &Server{
		addr:     addr,
		handlers: NewHandlers(remote),
	}
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /state", s.handlers.HandleState)
	mux.HandleFunc("GET /state/stream", s.handlers.HandleStream)
	mux.HandleFunc("POST /mode", s.handlers.setter(Remote.SetMode))
	mux.HandleFunc("POST /num-of-photo", s.handlers.setter(Remote.SetNumOfPhoto))
	mux.HandleFunc("POST /angle", s.handlers.setter(Remote.SetAngle))
	mux.HandleFunc("POST /time-interval", s.handlers.setter(Remote.SetTimeInterval))
	mux.HandleFunc("POST /camera/toggle", s.handlers.HandleToggle)
	mux.HandleFunc("POST /rescan", s.handlers.HandleRescan)

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("[WEB] listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
