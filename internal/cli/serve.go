package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/ledger"
	"github.com/ssism/dhammi/internal/news"
	"github.com/ssism/dhammi/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.News.Schedule != "" {
		sched, err := news.ParseSchedule(cfg.News.Schedule)
		if err != nil {
			return err
		}
		u := a.updater()
		sched.Start(ctx, logger, func(ctx context.Context) {
			if _, err := u.Run(ctx); err != nil {
				logger.Warn("headline update failed", zap.Error(err))
			}
		})
		logger.Info("headline feed scheduled",
			zap.String("schedule", cfg.News.Schedule),
			zap.Time("next", sched.Next(time.Now())))
	}

	// Local ledgers may be edited by hand; drop the cache when they change.
	if path := a.backend.WatchPath(); path != "" {
		if err := ledger.Watch(ctx, path, func() { a.facts.Invalidate(ctx) }, logger); err != nil {
			logger.Warn("ledger file not watched", zap.Error(err))
		}
	}

	srv := server.New(a.db, a.engine, a.facts, VersionString(),
		server.WithMetrics(a.metrics),
		server.WithLogger(logger.Named("http")))
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dhammi serving",
			zap.String("addr", addr),
			zap.String("db", a.db.Path),
			zap.String("ledger", a.backend.Name))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
