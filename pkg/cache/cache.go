// Package cache provides pluggable caching for pipeline stages.
//
// Three backends are available:
//   - FileCache: file-based cache for CLI usage
//   - RedisCache: redis-backed cache for multi-instance server deployments
//   - NullCache: no-op cache for tests or when caching is disabled
//
// Cache keys are produced by a Keyer so that all entry points (CLI, server)
// derive identical keys for identical inputs.
package cache

import (
	"context"
	"time"
)

// TTLs for the different pipeline stages. Topologies go stale quickly since
// they describe live replication state; layouts and artifacts are derived
// purely from their inputs and can live longer.
const (
	TTLTopology = 30 * time.Second
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
