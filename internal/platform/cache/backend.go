// Package cache provides byte-oriented TTL caches backed by process memory
// or Redis.
package cache

import (
	"context"
	"time"
)

// Backend stores opaque values under string keys.
type Backend interface {
	// Get returns the value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
