// Package store persists dump snapshots.
//
// A snapshot is the raw source document a dump was made from, plus the
// format needed to decode it again. Trees themselves are never stored:
// they hold live values and lazy state, so a stored snapshot is dumped
// afresh when it is viewed.
//
// Backends:
//   - [MemoryStore]: process-local, for tests and the embedded server
//   - [FileStore]: one JSON file per snapshot, the CLI default
//   - [RedisStore]: shared storage for multi-instance servers
//   - [MongoStore]: durable shared storage
//
// [New] picks a backend from a [Config] and wraps it with observability
// hooks.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/source"
)

// Snapshot is a stored source document.
type Snapshot struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name,omitempty"`
	Format    source.Format `json:"format"`
	Data      []byte        `json:"data"`
	CreatedAt time.Time     `json:"created_at"`
}

// Decode decodes the snapshot's document.
func (s *Snapshot) Decode() (any, error) {
	return source.Decode(s.Data, s.Format)
}

// Info returns the listing entry for s.
func (s *Snapshot) Info() Info {
	return Info{
		ID:        s.ID,
		Name:      s.Name,
		Format:    s.Format,
		Size:      len(s.Data),
		CreatedAt: s.CreatedAt,
	}
}

// Info describes a snapshot without its data.
type Info struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name,omitempty"`
	Format    source.Format `json:"format"`
	Size      int           `json:"size"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists snapshots.
type Store interface {
	// Save stores s, assigning an ID and creation time when unset.
	// Saving an existing ID overwrites it.
	Save(ctx context.Context, s *Snapshot) error

	// Get returns the snapshot with the given ID, or an error with code
	// NOT_FOUND.
	Get(ctx context.Context, id uuid.UUID) (*Snapshot, error)

	// List returns up to limit snapshots, newest first. A non-positive
	// limit returns all of them.
	List(ctx context.Context, limit int) ([]Info, error)

	// Delete removes a snapshot. Deleting a missing ID returns NOT_FOUND.
	Delete(ctx context.Context, id uuid.UUID) error

	// Close releases backend resources.
	Close() error
}

// ParseID parses a snapshot ID.
func ParseID(s string) (uuid.UUID, error) {
	if err := errors.ValidateSnapshotID(s); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}

// prepare validates s and fills in defaults before a write.
func prepare(s *Snapshot) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil snapshot")
	}
	if err := errors.ValidateSnapshotName(s.Name); err != nil {
		return err
	}
	if _, err := source.ParseFormat(string(s.Format)); err != nil {
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return errors.New(errors.ErrCodeNotFound, "snapshot %s not found", id)
}

// clip applies a List limit to entries already sorted newest first.
func clip(infos []Info, limit int) []Info {
	if limit > 0 && len(infos) > limit {
		return infos[:limit]
	}
	return infos
}
