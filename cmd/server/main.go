package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/salesview/internal/archive"
	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/logging"
	"github.com/JonMunkholm/salesview/internal/storage"
	"github.com/JonMunkholm/salesview/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// Money fields go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"archive", cfg.Archive.Type,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	archiver, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		slog.Error("failed to configure upload archive", "error", err)
		os.Exit(1)
	}

	service := core.NewService(store, core.ServiceConfig{
		BatchSize:            cfg.Upload.BatchSize,
		MaxConcurrentImports: cfg.Upload.MaxConcurrent,
		ImportWait:           cfg.Upload.MaxWaitTime,
		ImportTimeout:        cfg.Upload.Timeout,
		Archive:              archiver,
	})

	if err := seed(ctx, service, store, cfg.Store.SeedFile); err != nil {
		slog.Error("failed to seed store", "file", cfg.Store.SeedFile, "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for active imports to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		store.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// seed imports path into an empty store. A store that already holds records
// is left alone so restarts do not duplicate the seed.
func seed(ctx context.Context, service *core.Service, store core.Store, path string) error {
	if path == "" {
		return nil
	}

	existing, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("store already populated, skipping seed", "records", len(existing))
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := service.ImportCSV(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	slog.Info("store seeded", "file", path, "records", result.Inserted)
	return nil
}
