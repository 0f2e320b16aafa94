package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/compile-gateway/internal/config"
	"github.com/iliamunaev/compile-gateway/internal/gateway"
	"github.com/iliamunaev/compile-gateway/internal/middleware"
	httptransport "github.com/iliamunaev/compile-gateway/internal/transport/http"
)

func main() {
	cfg := config.Load(os.LookupEnv)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newHandler wires the gateway behind the HTTP routes and request logging.
func newHandler(cfg config.Config, logger *slog.Logger) http.Handler {
	gw := gateway.New(gateway.Config{
		UpstreamBaseURL: cfg.UpstreamBaseURL,
		Logger:          logger,
	})

	mux := http.NewServeMux()
	httptransport.New(gw, gw.Tracker(), logger).Register(mux)

	return middleware.Logging(logger)(mux)
}

// run serves until ctx is canceled, then shuts down gracefully.
//
// There is no write timeout: a compile call lasts as long as the upstream
// takes to answer.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, logger),
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("compile gateway configuration",
		"addr", cfg.Addr,
		"upstream", cfg.UpstreamBaseURL,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
