// Package jsonfile persists records as a single JSON array on disk.
//
// The whole document is rewritten on every Append through a temp file and
// rename, so a crash mid-write leaves the previous document intact. It suits
// the data volumes of a single-node deployment; use postgres or sqlite for
// anything larger.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/JonMunkholm/salesview/internal/core"
)

// Store is a file-backed record store.
type Store struct {
	path string

	mu      sync.RWMutex
	records []core.Record
}

// Open loads path, creating its directory if needed. A missing file is an
// empty collection.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return s, nil
}

// Append writes the collection plus records to disk, then publishes them.
// If the write fails the in-memory collection is unchanged.
func (s *Store) Append(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clip(s.records), records...)
	if err := s.write(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// All returns a copy of every record in insertion order.
func (s *Store) All(context.Context) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

// Ping checks that the data directory is still reachable.
func (s *Store) Ping(context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) write(records []core.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(records); err != nil {
		tmp.Close()
		return fmt.Errorf("encode records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
