package cache

import (
	"context"
	"time"

	"github.com/rs/xid"
)

// Cache is the three-method contract the pipeline consumes.
//
// Get returns the value and true on a hit. A non-nil error means the lookup
// itself failed (remote backends); the caller treats that as a miss.
// Set stores the value for ttl; a ttl <= 0 stores without expiry.
// Delete removes the entry, cancelling any pending expiry.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Factory builds a cache instance for one page registration. The id is an
// opaque unique identifier for diagnostics and isolation; implementations
// must not fold it into the key space.
type Factory[V any] func(id string) Cache[V]

// MemoryFactory returns a Factory producing in-memory caches with the given
// capacity.
func MemoryFactory[V any](capacity int) Factory[V] {
	return func(string) Cache[V] {
		return NewMemory[V](capacity)
	}
}

// NewID returns an opaque unique cache instance identifier.
func NewID() string {
	return xid.New().String()
}
