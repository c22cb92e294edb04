// Package postgres stores sales records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
)

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool sized from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New applies the schema and returns a store over pool. The store owns the
// pool and closes it on Close.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Append copies records in a single COPY statement, so a batch is stored
// entirely or not at all.
func (s *Store) Append(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		return recordValues(&records[i])
	})

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"sales_records"}, columns, src)
	if err != nil {
		return fmt.Errorf("copy sales records: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copy sales records: wrote %d of %d rows", n, len(records))
	}
	return nil
}

// All returns every record in insertion order.
func (s *Store) All(ctx context.Context) ([]core.Record, error) {
	rows, err := s.pool.Query(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}

	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[salesRow])
	if err != nil {
		return nil, fmt.Errorf("scan sales records: %w", err)
	}

	records := make([]core.Record, 0, len(scanned))
	for i := range scanned {
		r, err := scanned[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// FilterOptions runs one DISTINCT query per field concurrently instead of
// loading every record.
func (s *Store) FilterOptions(ctx context.Context) (*core.FilterOptions, error) {
	var opts core.FilterOptions

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range []struct {
		sql  string
		dest *[]string
	}{
		{fmt.Sprintf(distinctColumn, "customer_region"), &opts.CustomerRegions},
		{fmt.Sprintf(distinctColumn, "gender"), &opts.Genders},
		{fmt.Sprintf(distinctColumn, "product_category"), &opts.ProductCategories},
		{fmt.Sprintf(distinctColumn, "payment_method"), &opts.PaymentMethods},
		{distinctTags, &opts.Tags},
	} {
		g.Go(func() error {
			rows, err := s.pool.Query(gctx, q.sql)
			if err != nil {
				return fmt.Errorf("query distinct values: %w", err)
			}
			values, err := pgx.CollectRows(rows, pgx.RowTo[string])
			if err != nil {
				return fmt.Errorf("scan distinct values: %w", err)
			}
			*q.dest = values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
