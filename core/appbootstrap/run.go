package appbootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kestrel-eoc/api"
	"kestrel-eoc/config"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

const shutdownTimeout = 15 * time.Second

// Run loads configuration, opens the database, composes the runtime and
// serves until SIGINT or SIGTERM.
func Run(configPath string) error {
	logger := utils.NewLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	comp, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return fmt.Errorf("compose runtime: %w", err)
	}

	server := api.NewServer(comp.serverDeps)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	for _, w := range comp.workers {
		w.StartWithContext(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
	for _, w := range comp.workers {
		if err := w.StopWithContext(shutdownCtx); err != nil {
			logger.Errorf("worker shutdown: %v", err)
		}
	}
	return nil
}
