package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Local writes archived files under a base directory.
type Local struct {
	BaseDir string
	now     func() time.Time
}

// NewLocal creates baseDir if needed.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Local{BaseDir: baseDir, now: time.Now}, nil
}

// Save copies r to a new file and returns its key relative to BaseDir.
func (d *Local) Save(_ context.Context, name string, r io.Reader) (string, error) {
	key := objectKey(d.now(), name)
	fullPath := filepath.Join(d.BaseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create archive subdirectory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("close archive file: %w", err)
	}
	return key, nil
}
