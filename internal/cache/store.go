package cache

import (
	"context"
	"time"
)

// Store is a TTL keyed byte store backing the news and sentiment sub-caches.
// These caches are consulted before any network fetch; expired or missing
// entries report found=false.
//
// Values round-trip through JSON so the memory and Redis backends behave
// identically.
type Store interface {
	// Get unmarshals the value stored under key into dest and reports
	// whether a live entry was found
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
