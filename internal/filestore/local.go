package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local stores documents as files under a single directory. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// half-written payload behind.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed and returns a disk-backed store.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) path(key string) string {
	// Keys are generated internally (leads_<uuid>, template_<uuid>), but
	// flatten anyway so a hostile key cannot escape the directory.
	return filepath.Join(l.dir, filepath.Base(key))
}

func (l *Local) Put(_ context.Context, key string, data []byte) error {
	dst := l.path(key)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
