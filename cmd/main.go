package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/app"
	"github.com/ukydev/fleet-console/internal/config"
	"github.com/ukydev/fleet-console/internal/handlers"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	defer a.Close()

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Fatalf("Failed to listen on :%s: %v", cfg.Port, err)
	}

	if err := serve(ctx, a, ln); err != nil {
		log.WithError(err).Error("Console stopped with error")
		a.Close()
		os.Exit(1)
	}
	log.Info("Console stopped")
}

// newHandler builds the dashboard router over a.
func newHandler(a *app.App) http.Handler {
	return handlers.NewServer(a.Client, a.Store, a.Session, handlers.Options{
		LoginRateLimit:  a.Config.LoginRateLimit,
		LoginRateWindow: a.Config.LoginRateWindow,
		Frames:          a.Frames,
	}).Routes()
}

// serve runs the dashboard server and the telemetry simulation until ctx is
// cancelled, then shuts the server down within the grace period.
func serve(ctx context.Context, a *app.App, ln net.Listener) error {
	if a.Session.Authenticated() {
		if err := a.Store.Load(ctx); err != nil {
			log.WithError(err).Warn("Initial vehicle load failed")
		}
	}

	srv := &http.Server{
		Handler:           newHandler(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", ln.Addr().String()).Info("Dashboard server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Simulator.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownGracePeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
