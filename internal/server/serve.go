// Package server hosts the API and GUI HTTP servers the launcher runs as
// worker processes. Both bind their listener explicitly before serving so
// a contended port surfaces as a structured failure, never as a scraped
// log line.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/equinor/fmu-settings-cli/internal/model"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// listen binds the service port. A port held by another process comes
// back as *model.PortInUseError so callers and the supervisor can treat
// it distinctly from other startup failures.
func listen(service, host string, port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, &model.PortInUseError{Service: service, Port: port}
		}
		return nil, fmt.Errorf("binding %s:%d: %w", host, port, err)
	}
	return ln, nil
}

// serve runs srv on ln until it fails or ctx is cancelled, then shuts it
// down with a bounded grace period. Returns nil on orderly shutdown.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
