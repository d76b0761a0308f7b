package sylph

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sylph-dev/sylph/pkg/router"
)

// Start discovers modules and serves them on port until ctx is done. A
// zero port resolves through Config.Port, PORT, SYLPH_PORT and DefaultPort.
func (a *App) Start(ctx context.Context, port int) error {
	addr := ":" + strconv.Itoa(a.cfg.resolvePort(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve discovers modules and serves them on ln until ctx is done, then
// shuts down gracefully. In watch mode module changes are applied while
// serving.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Discover(ctx); err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.cfg.Watch {
		g.Go(func() error {
			err := a.engine.Watch(gctx)
			switch {
			case errors.Is(err, router.ErrWatchUnsupported):
				a.logger.Warn("module provider cannot be watched, live discovery disabled")
				return nil
			case errors.Is(err, router.ErrWatchStopped):
				a.logger.Error("module watcher stopped, live discovery disabled")
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.shutdownTimeout())
		defer cancel()
		if a.reload != nil {
			a.reload.Close()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown error", "error", err)
			return err
		}
		return nil
	})

	return g.Wait()
}
