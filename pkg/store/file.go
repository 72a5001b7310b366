package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/errors"
)

// FileStore stores each snapshot as a JSON file in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store.
// If baseDir is empty, defaults to ~/.config/vardump/snapshots/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "vardump", "snapshots")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create snapshot dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) snapshotPath(id uuid.UUID) string {
	return filepath.Join(s.baseDir, id.String()+".json")
}

func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := prepare(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(snap.ID), data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write snapshot file")
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.snapshotPath(id), id)
}

func (s *FileStore) read(path string, id uuid.UUID) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read snapshot file")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse snapshot %s", filepath.Base(path))
	}
	return &snap, nil
}

// List skips files that are not readable snapshots.
func (s *FileStore) List(ctx context.Context, limit int) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read snapshot dir")
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		snap, err := s.read(filepath.Join(s.baseDir, entry.Name()), uuid.Nil)
		if err != nil {
			continue
		}
		infos = append(infos, snap.Info())
	}
	sortNewestFirst(infos)
	return clip(infos, limit), nil
}

func (s *FileStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return errors.Wrap(errors.ErrCodeStore, err, "remove snapshot file")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
