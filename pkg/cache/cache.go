// Package cache provides the storage layer for computed layouts and rendered
// artifacts.
//
// Layouts are pure functions of their inputs, so a cached entry is keyed by a
// hash of everything that went into it (see [Keyer]). Three backends are
// provided:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the server
//
// Backends that talk to the network wrap transient failures with [Retryable]
// and retry them with a [Backoff] policy.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default TTLs per entry kind.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// NullCache is the backend for --no-cache and cache.backend = "none": every
// Get misses and every write is dropped, so the pipeline always recomputes.
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() NullCache { return NullCache{} }

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NullCache) Delete(context.Context, string) error {
	return nil
}

func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}
