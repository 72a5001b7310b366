package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/vardump/pkg/errors"
)

// DefaultRedisPrefix namespaces the keys a RedisStore writes.
const DefaultRedisPrefix = "vardump"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces keys. Defaults to DefaultRedisPrefix.
	Prefix string
}

// RedisStore keeps each snapshot under its own key and indexes them in a
// sorted set scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to redis at %s", cfg.Addr)
	}
	return newRedisStore(client, cfg.Prefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:snapshot:%s", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":snapshots"
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := prepare(snap); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(snap.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(snap.CreatedAt.UnixMilli()),
			Member: snap.ID.String(),
		})
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save snapshot %s", snap.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get snapshot %s", id)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse snapshot %s", id)
	}
	return &snap, nil
}

// List reads IDs from the index and fetches the snapshots in one MGET.
// Index entries whose key has vanished are skipped.
func (s *RedisStore) List(ctx context.Context, limit int) ([]Info, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%s:snapshot:%s", s.prefix, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}

	infos := make([]Info, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(str), &snap); err != nil {
			continue
		}
		infos = append(infos, snap.Info())
	}
	return infos, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id.String())
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
