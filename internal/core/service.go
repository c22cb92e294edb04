package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/salesview/internal/logging"
)

var (
	// ErrNoRecords is returned when an uploaded file yields zero records.
	ErrNoRecords = errors.New("no valid records found in file")

	// ErrEmptyBatch is returned when Import is called with nothing to import.
	ErrEmptyBatch = errors.New("empty batch: nothing to import")
)

// DefaultBatchSize is how many parsed rows are appended per store call.
const DefaultBatchSize = 1000

// ServiceConfig tunes import behaviour. Zero values take the defaults.
type ServiceConfig struct {
	BatchSize            int
	MaxConcurrentImports int
	ImportWait           time.Duration
	ImportTimeout        time.Duration

	// Archive receives a copy of every uploaded file when non-nil.
	Archive Archiver
}

// Service is the entry point for querying and importing sales records.
// All state lives in the injected Store.
type Service struct {
	store     Store
	archive   Archiver
	limiter   *ImportLimiter
	batchSize int
	timeout   time.Duration
	now       func() time.Time
}

// NewService wires a Service around store.
func NewService(store Store, cfg ServiceConfig) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Service{
		store:     store,
		archive:   cfg.Archive,
		limiter:   NewImportLimiter(cfg.MaxConcurrentImports, cfg.ImportWait),
		batchSize: batchSize,
		timeout:   cfg.ImportTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query returns one page of records matching c. Unset sort and paging
// fields take their defaults.
func (s *Service) Query(ctx context.Context, c Criteria) (*ResultPage, error) {
	c = c.WithDefaults()
	if err := ValidateCriteria(c); err != nil {
		return nil, err
	}

	records, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	page := Query(records, c)
	return &page, nil
}

// Export calls fn for every record matching c, in sorted order, ignoring
// pagination. It stops at the first error fn returns.
func (s *Service) Export(ctx context.Context, c Criteria, fn func(Record) error) error {
	c = c.WithDefaults()
	if err := ValidateCriteria(c); err != nil {
		return err
	}

	records, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	for _, r := range Match(records, c) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// FilterOptions returns the distinct values of each filterable field.
func (s *Service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	if src, ok := s.store.(OptionsSource); ok {
		opts, err := src.FilterOptions(ctx)
		if err != nil {
			return nil, fmt.Errorf("load filter options: %w", err)
		}
		opts.Normalize()
		return opts, nil
	}

	records, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	opts := CollectOptions(records)
	return &opts, nil
}

// Import validates records and appends them as one batch. Either every
// record is stored or none is. Returns the number stored.
func (s *Service) Import(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, ErrEmptyBatch
	}
	if err := ValidateRecords(records); err != nil {
		return 0, err
	}

	batch := slices.Clone(records)
	s.stamp(batch)

	if err := s.store.Append(ctx, batch); err != nil {
		return 0, fmt.Errorf("append records: %w", err)
	}

	logging.FromContext(ctx).Info("records imported", "count", len(batch))
	return len(batch), nil
}

// ImportCSV parses an uploaded CSV file and appends its records in batches.
// A file with no usable rows fails with ErrNoRecords. If a later batch fails,
// earlier batches stay stored.
func (s *Service) ImportCSV(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	log := logging.WithFields(ctx, "file", fileName)

	data, err := io.ReadAll(NormalizeReader(r))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	result := &ImportResult{FileName: fileName}

	if s.archive != nil {
		key, err := s.archive.Save(ctx, fileName, bytes.NewReader(data))
		if err != nil {
			log.Warn("archive upload failed", "error", err)
		} else {
			result.ArchiveKey = key
		}
	}

	records := ParseCSV(string(data))
	result.Parsed = len(records)
	if len(records) == 0 {
		return nil, fmt.Errorf("import %s: %w", fileName, ErrNoRecords)
	}

	for batch := range slices.Chunk(records, s.batchSize) {
		s.stamp(batch)
		if err := s.store.Append(ctx, batch); err != nil {
			log.Error("import stopped", "batch", result.Batches+1, "inserted", result.Inserted, "error", err)
			return nil, fmt.Errorf("append batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		result.Inserted += len(batch)
	}

	result.DurationMS = time.Since(start).Milliseconds()
	log.Info("csv imported",
		"parsed", result.Parsed,
		"inserted", result.Inserted,
		"batches", result.Batches,
		"duration_ms", result.DurationMS,
	)
	return result, nil
}

// Ping checks the store when it supports health checks.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// LimiterStatus reports import concurrency for the health endpoint.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// stamp assigns an id and creation time to records that lack them.
func (s *Service) stamp(records []Record) {
	now := s.now()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
	}
}
