// Package cache provides the response cache used by registry clients.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under ~/.cache/typescout/ (CLI default)
//   - [RedisCache]: shared cache for CI fleets, enabled with a redis URL
//   - [NullCache]: disables caching (--no-cache)
//
// # Keys
//
// Keys are produced by a [Keyer]. [ScopedKeyer] prefixes every key so that
// lookups against different registries never share entries.
//
// # Retries
//
// [RetryWithBackoff] retries only errors wrapped with [Retryable]. Registry
// clients wrap transient failures (timeouts, 5xx) and leave 404s unwrapped.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	// TTLLookup is how long a confirmed registry lookup stays fresh.
	TTLLookup = 24 * time.Hour
)

// Cache stores opaque byte payloads under string keys.
// Implementations must be safe for concurrent use; the registry verifier
// calls Get and Set from several goroutines at once.
type Cache interface {
	// Get returns the payload for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey generates a key for an HTTP response from namespace (e.g. "npm:").
	HTTPKey(namespace, key string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey generates a key of the form "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
