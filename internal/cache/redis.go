package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 15 * time.Minute

// NewRedisCache stores values under "<prefix>:<key>" with a jittered TTL so
// entries written together do not expire together.
func NewRedisCache[T any](client *redis.Client, prefix string, baseTTL time.Duration) *RedisCache[T] {
	if baseTTL <= 0 {
		baseTTL = DefaultTTL
	}
	return &RedisCache[T]{
		client:  client,
		prefix:  prefix,
		baseTTL: baseTTL,
	}
}

type RedisCache[T any] struct {
	client  *redis.Client
	prefix  string
	baseTTL time.Duration
}

func (r *RedisCache[T]) Get(ctx context.Context, key string) (*T, error) {
	data, err := r.client.Get(ctx, r.cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var value T
	if err2 := json.Unmarshal(data, &value); err2 != nil {
		return nil, fmt.Errorf("unmarshal %s failed: %w", r.prefix, err2)
	}

	return &value, nil
}

func (r *RedisCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := r.encode(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.cacheKey(key), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache[T]) SetIfAbsent(ctx context.Context, key string, value *T) (bool, error) {
	data, err := r.encode(value)
	if err != nil {
		return false, err
	}
	ok, err := r.client.SetNX(ctx, r.cacheKey(key), data, r.ttl()).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (r *RedisCache[T]) encode(value *T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal %s failed: %w", r.prefix, err)
	}
	return data, nil
}

// ttl spreads expiry over baseTTL plus up to four minutes.
func (r *RedisCache[T]) ttl() time.Duration {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.baseTTL + jitter
}

func (r *RedisCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func (r *RedisCache[T]) cacheKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
