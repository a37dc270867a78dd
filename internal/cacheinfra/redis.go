package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

const scanBatchSize = 100

// RedisService is a backend shared between processes. Values are msgpack encoded
// and decoded back into the fetch function's result type. Concurrent misses for
// one key inside a process are coalesced with singleflight.
type RedisService struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	rewrite func(string) string
	group   singleflight.Group
}

// NewRedisServiceFromURL parses cfg.RedisURL and opens a client.
// rewrite, when non-nil, maps logical keys to stored keys (e.g. hashing long keys).
func NewRedisServiceFromURL(cfg Config, rewrite func(string) string) (*RedisService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, &ConfigError{Field: "RedisURL", Message: err.Error()}
	}

	return NewRedisService(redis.NewClient(opts), cfg, rewrite), nil
}

// NewRedisService wraps an existing client. The caller owns the client lifecycle.
func NewRedisService(client redis.UniversalClient, cfg Config, rewrite func(string) string) *RedisService {
	return &RedisService{
		client:  client,
		prefix:  cfg.RedisPrefix,
		ttl:     cfg.TTL,
		rewrite: rewrite,
	}
}

// Client exposes the underlying Redis client.
func (s *RedisService) Client() redis.UniversalClient {
	return s.client
}

// Close closes the underlying client.
func (s *RedisService) Close() error {
	return s.client.Close()
}

// GetOrFetch returns the decoded value under key, or runs fetchFn once per
// process for concurrent callers and stores the result.
func (s *RedisService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	stored := s.storedKey(key)
	typ := resultType(fetchFn)

	value, found, err := s.load(ctx, stored, typ)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	// shared by every waiter on stored, so not bound to the leader's cancellation
	shared := context.WithoutCancel(ctx)
	value, err, _ = s.group.Do(stored, func() (any, error) {
		result, err := callFetchFn(shared, fetchFn)
		if err != nil {
			return nil, err
		}
		// best effort: a failed write still returns the fresh value
		_ = s.store(shared, stored, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key, replacing any previous entry.
func (s *RedisService) Set(ctx context.Context, key string, value any) error {
	return s.store(ctx, s.storedKey(key), value)
}

// Delete removes a single entry. Deleting a missing key is a no-op.
func (s *RedisService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.storedKey(key)).Err()
}

// DeleteByPrefix removes every entry whose logical key starts with prefix using SCAN.
// With key hashing enabled only namespace prefixes are reliable.
func (s *RedisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := s.withPrefix(prefix) + "*"
	var cursor uint64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// InvalidateKeys removes multiple entries in one round trip.
func (s *RedisService) InvalidateKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	stored := make([]string, len(keys))
	for i, key := range keys {
		stored[i] = s.storedKey(key)
	}
	return s.client.Del(ctx, stored...).Err()
}

func (s *RedisService) load(ctx context.Context, stored string, typ reflect.Type) (any, bool, error) {
	data, err := s.client.Get(ctx, stored).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	ptr := reflect.New(typ)
	if err := msgpack.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, false, fmt.Errorf("cacheinfra: decode %s: %w", stored, err)
	}
	return ptr.Elem().Interface(), true, nil
}

func (s *RedisService) store(ctx context.Context, stored string, value any) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("cacheinfra: encode %s: %w", stored, err)
	}
	// redis treats a zero expiration as "keep forever"
	return s.client.Set(ctx, stored, data, s.ttl).Err()
}

func (s *RedisService) storedKey(key string) string {
	if s.rewrite != nil {
		key = s.rewrite(key)
	}
	return s.withPrefix(key)
}

func (s *RedisService) withPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
