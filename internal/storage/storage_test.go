package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/storage/jsonfile"
	"github.com/JonMunkholm/salesview/internal/storage/memory"
	"github.com/JonMunkholm/salesview/internal/storage/sqlite"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		store   config.StoreConfig
		check   func(Store) bool
		wantErr bool
	}{
		{
			name:  "memory",
			store: config.StoreConfig{Backend: "memory"},
			check: func(s Store) bool { _, ok := s.(*memory.Store); return ok },
		},
		{
			name:  "file is case-insensitive",
			store: config.StoreConfig{Backend: "FILE", FilePath: filepath.Join(dir, "sales.json")},
			check: func(s Store) bool { _, ok := s.(*jsonfile.Store); return ok },
		},
		{
			name:  "sqlite",
			store: config.StoreConfig{Backend: "sqlite", SQLitePath: filepath.Join(dir, "sales.db")},
			check: func(s Store) bool { _, ok := s.(*sqlite.Store); return ok },
		},
		{
			name:    "unknown",
			store:   config.StoreConfig{Backend: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), &config.Config{Store: tt.store})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			if !tt.check(s) {
				t.Errorf("Open() returned %T", s)
			}

			ctx := context.Background()
			if err := s.Append(ctx, []core.Record{{ID: "1", CustomerID: "C", ProductID: "P"}}); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			all, err := s.All(ctx)
			if err != nil || len(all) != 1 {
				t.Errorf("All() = %d records, %v", len(all), err)
			}
		})
	}
}
