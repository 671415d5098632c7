// Package cache provides the read-through response cache used by the LLM
// gateway.
//
// A cache entry maps a prompt key (a hash of provider, model, and prompt
// text) to the raw model response. The cache is checked before every
// gateway call and written after every successful one, which makes repeated
// runs over unchanged input cheap and, with mocked providers, fully
// deterministic.
//
// Backends:
//   - file: JSON files under a local directory, for CLI usage (default)
//   - memory: bounded in-process LRU, for tests and as a fast front
//   - redis: shared cache for repeated runs across machines
//   - null: caching disabled
//
// All implementations are safe for concurrent use. Writes to the same key
// are last-writer-wins: a duplicate write after a racing miss only repeats
// work, it never corrupts an entry.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind. Zero means no expiration.
const (
	// TTLPrompt applies to LLM responses. Model output for a fixed prompt
	// is stable enough to keep for a long time; re-runs with --refresh
	// bypass the cache instead.
	TTLPrompt = 30 * 24 * time.Hour
)

// Cache is the interface for cache storage backends.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// Keyer generates cache keys for the entities codeprimer caches.
type Keyer interface {
	// PromptKey generates a key for an LLM response, derived from the
	// provider, model, and full prompt text.
	PromptKey(providerID, model, prompt string) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PromptKey generates a key of the form "prompt:<sha256>".
func (k *DefaultKeyer) PromptKey(providerID, model, prompt string) string {
	return hashKey("prompt", providerID, model, prompt)
}
