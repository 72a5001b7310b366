// Package cache stores rendered artifacts by content hash.
//
// Rendering a dump through Graphviz is the slowest thing vardump does, and
// the result depends only on the DOT source. Callers key entries with
// [Key] so that identical trees hit the same entry across runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Key builds a key for an artifact of the given kind, e.g. "svg", from
// the content it was rendered from.
func Key(kind string, content []byte) string {
	return fmt.Sprintf("%s:%s", kind, Hash(content))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
