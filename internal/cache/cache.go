package cache

import (
	"context"
	"errors"
)

// Cache is a read-through cache of JSON-serialisable documents keyed by owner.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Set(ctx context.Context, key string, value *T) error
	// SetIfAbsent stores value only when key holds nothing, so a fill from a
	// slow read never replaces a value written after it.
	SetIfAbsent(ctx context.Context, key string, value *T) (bool, error)
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
