package cache

import (
	"time"
)

// CacheService represents a generic cache service. The crawler uses it to
// share rate-limit block keys between workers: once one worker sees a 429
// from an endpoint, every other worker backs off for the block time.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
