package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/observability"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the supported backend names.
var Backends = []string{BackendMemory, BackendFile, BackendRedis, BackendMongo}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of Backends. Empty means BackendFile.
	Backend string

	// Dir is the FileStore directory.
	Dir string

	Redis RedisConfig
	Mongo MongoConfig
}

// New opens the configured backend. The returned store reports every
// operation to the observability store hooks.
func New(ctx context.Context, cfg Config) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(cfg.Dir)
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(backend, s), nil
}

// Instrument wraps s so that its operations are reported to the
// observability store hooks under the given backend name.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, next: s}
}

type instrumented struct {
	backend string
	next    Store
}

func (s *instrumented) Save(ctx context.Context, snap *Snapshot) error {
	err := s.next.Save(ctx, snap)
	size := 0
	if snap != nil {
		size = len(snap.Data)
	}
	observability.Store().OnSave(ctx, s.backend, size, err)
	return err
}

func (s *instrumented) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	snap, err := s.next.Get(ctx, id)
	if errors.Is(err, errors.ErrCodeNotFound) {
		observability.Store().OnLoad(ctx, s.backend, false, nil)
	} else {
		observability.Store().OnLoad(ctx, s.backend, err == nil, err)
	}
	return snap, err
}

func (s *instrumented) List(ctx context.Context, limit int) ([]Info, error) {
	return s.next.List(ctx, limit)
}

func (s *instrumented) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.next.Delete(ctx, id)
	observability.Store().OnDelete(ctx, s.backend, err)
	return err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}

var _ Store = (*instrumented)(nil)
