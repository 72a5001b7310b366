package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps snapshots in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[uuid.UUID]*Snapshot)}
}

func (s *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := prepare(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = clone(snap)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(snap), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		infos = append(infos, snap.Info())
	}
	sortNewestFirst(infos)
	return clip(infos, limit), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return notFound(id)
	}
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

func clone(s *Snapshot) *Snapshot {
	c := *s
	c.Data = slices.Clone(s.Data)
	return &c
}

// sortNewestFirst orders by creation time, newest first, then by ID so
// equal timestamps list deterministically.
func sortNewestFirst(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
}
