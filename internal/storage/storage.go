// Package storage selects and opens the record store named in configuration.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/storage/jsonfile"
	"github.com/JonMunkholm/salesview/internal/storage/memory"
	"github.com/JonMunkholm/salesview/internal/storage/postgres"
	"github.com/JonMunkholm/salesview/internal/storage/sqlite"
)

// Store is a core.Store that holds resources to release on shutdown.
type Store interface {
	core.Store
	io.Closer
}

// Open returns the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch backend := strings.ToLower(cfg.Store.Backend); backend {
	case config.BackendMemory:
		slog.Info("using in-memory store")
		return memory.New(), nil

	case config.BackendFile:
		slog.Info("using file store", "path", cfg.Store.FilePath)
		s, err := jsonfile.Open(cfg.Store.FilePath)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.BackendSQLite:
		slog.Info("using sqlite store", "path", cfg.Store.SQLitePath)
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		slog.Info("using postgres store", "database", pool.Config().ConnConfig.Database)

		s, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
