package methodcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-method-cache/cache"
)

// ErrInvalidOption is returned by New for unusable arguments or options.
var ErrInvalidOption = errors.New("methodcache: invalid option")

// Func is the read operation a Cache decorates.
type Func[A, V any] func(ctx context.Context, args A) (V, error)

// KeyFunc derives the key suffix for one call.
type KeyFunc[A any] func(args A) (string, error)

// Cache decorates a read operation with cache-aside semantics.
//
// A hit never calls the wrapped function. A miss calls it once, with concurrent
// misses for the same key sharing that call through the backend, and stores the
// result. Failed calls store nothing. Mutations never touch the cache unless
// the cache runs with PolicyWriteThrough and the mutation goes through Mutate.
type Cache[A, V any] struct {
	name       string
	namespace  string
	fn         Func[A, V]
	service    cache.CacheService
	keyFunc    KeyFunc[A]
	serializer cache.KeySerializer
	ttl        time.Duration
	policy     Policy
	logger     *zap.Logger
	metrics    MetricsRecorder
	now        func() time.Time
}

// New wraps fn. name becomes the key namespace after normalization; an empty
// name gets a random namespace so the cache never shares keys by accident.
func New[A, V any](name string, fn Func[A, V], service cache.CacheService, opts ...Option) (*Cache[A, V], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidOption)
	}
	if service == nil {
		return nil, fmt.Errorf("%w: nil cache service", ErrInvalidOption)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.ttl < 0 {
		return nil, fmt.Errorf("%w: negative ttl %s", ErrInvalidOption, o.ttl)
	}

	var keyFunc KeyFunc[A]
	if o.keyFunc != nil {
		kf, ok := o.keyFunc.(KeyFunc[A])
		if !ok || kf == nil {
			return nil, fmt.Errorf("%w: key func %T does not accept %T arguments", ErrInvalidOption, o.keyFunc, *new(A))
		}
		keyFunc = kf
	}

	namespace := normalizeName(name)
	if namespace == "" {
		namespace = "cache_" + uuid.NewString()
	}

	return &Cache[A, V]{
		name:       name,
		namespace:  namespace,
		fn:         fn,
		service:    service,
		keyFunc:    keyFunc,
		serializer: o.serializer,
		ttl:        o.ttl,
		policy:     o.policy,
		logger:     o.logger.With(zap.String("cache", namespace)),
		metrics:    o.metrics,
		now:        o.now,
	}, nil
}

// Name returns the name given to New.
func (c *Cache[A, V]) Name() string {
	return c.name
}

// Namespace returns the key namespace.
func (c *Cache[A, V]) Namespace() string {
	return c.namespace
}

// Policy returns the invalidation policy.
func (c *Cache[A, V]) Policy() Policy {
	return c.policy
}

// Func returns Get as a value with the wrapped function's signature.
func (c *Cache[A, V]) Func() Func[A, V] {
	return c.Get
}

// Key derives the cache key for args. Failures wrap cache.ErrInvalidKey.
func (c *Cache[A, V]) Key(args A) (string, error) {
	if c.keyFunc != nil {
		suffix, err := c.keyFunc(args)
		if err != nil {
			return "", &cache.KeyError{Args: args, Err: err}
		}
		if suffix == "" {
			return "", &cache.KeyError{Args: args, Err: errors.New("empty key")}
		}
		return c.namespace + cache.KeySeparator + suffix, nil
	}

	if err := cache.ValidateKeyArg(args); err != nil {
		return "", err
	}
	return c.serializer.SerializeKey(c.namespace, args), nil
}

// Get returns the cached result for args, computing and storing it on a miss.
// Errors from the wrapped function come back as *cache.ComputationError.
func (c *Cache[A, V]) Get(ctx context.Context, args A) (V, error) {
	if bypassed(ctx) {
		return c.Refresh(ctx, args)
	}

	var zero V

	key, err := c.Key(args)
	if err != nil {
		return zero, err
	}

	for attempt := 0; ; attempt++ {
		var computed atomic.Bool

		entry, err := cache.GetOrFetch(ctx, c.service, key, func(ctx context.Context) (Entry[V], error) {
			computed.Store(true)
			return c.compute(ctx, key, args)
		})
		if err != nil {
			return zero, err
		}

		if computed.Load() {
			c.metrics.Miss(c.namespace)
			c.logger.Debug("method cache miss", zap.String("key", key))
			return entry.Value, nil
		}

		// a second expired read means the clock outran a fresh entry; serve it
		if entry.Expired(c.now()) && attempt == 0 {
			c.logger.Debug("method cache entry expired", zap.String("key", key), zap.Time("expires_at", entry.ExpiresAt))
			if err := c.service.Delete(ctx, key); err != nil {
				return zero, err
			}
			continue
		}

		c.metrics.Hit(c.namespace)
		c.logger.Debug("method cache hit", zap.String("key", key))
		return entry.Value, nil
	}
}

// Refresh recomputes the value for args without reading the cache and stores
// it on success. On failure the stored entry, if any, is left as it was.
func (c *Cache[A, V]) Refresh(ctx context.Context, args A) (V, error) {
	var zero V

	key, err := c.Key(args)
	if err != nil {
		return zero, err
	}

	entry, err := c.compute(ctx, key, args)
	if err != nil {
		return zero, err
	}

	if err := c.service.Set(ctx, key, entry); err != nil {
		return zero, err
	}

	c.logger.Debug("method cache refreshed", zap.String("key", key))
	return entry.Value, nil
}

// Put stores value for args, replacing any existing entry.
func (c *Cache[A, V]) Put(ctx context.Context, args A, value V) error {
	key, err := c.Key(args)
	if err != nil {
		return err
	}

	if err := c.service.Set(ctx, key, c.newEntry(value)); err != nil {
		return err
	}

	c.logger.Debug("method cache put", zap.String("key", key))
	return nil
}

// Invalidate removes the entry for args. Missing entries are not an error.
func (c *Cache[A, V]) Invalidate(ctx context.Context, args A) error {
	key, err := c.Key(args)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx, key); err != nil {
		return err
	}

	c.metrics.Invalidation(c.namespace)
	c.logger.Debug("method cache invalidated", zap.String("key", key))
	return nil
}

// InvalidateAll removes every entry in this cache's namespace.
func (c *Cache[A, V]) InvalidateAll(ctx context.Context) error {
	if err := c.service.DeleteByPrefix(ctx, c.namespace+cache.KeySeparator); err != nil {
		return err
	}

	c.metrics.Invalidation(c.namespace)
	c.logger.Debug("method cache namespace invalidated")
	return nil
}

// Mutate runs a mutation of the data behind args. Under PolicyWriteThrough a
// successful mutation invalidates the entry for args; under PolicyExplicit the
// cache is not touched. A failed mutation never invalidates.
func (c *Cache[A, V]) Mutate(ctx context.Context, args A, mutation func(ctx context.Context) error) error {
	if mutation == nil {
		return fmt.Errorf("%w: nil mutation", ErrInvalidOption)
	}

	// derive the key first so an invalid key cannot leave a mutation unaccounted for
	var key string
	if c.policy == PolicyWriteThrough {
		k, err := c.Key(args)
		if err != nil {
			return err
		}
		key = k
	}

	if err := mutation(ctx); err != nil {
		return err
	}

	if c.policy != PolicyWriteThrough {
		return nil
	}

	if err := c.service.Delete(ctx, key); err != nil {
		return err
	}

	c.metrics.Invalidation(c.namespace)
	c.logger.Debug("method cache invalidated after mutation", zap.String("key", key))
	return nil
}

func (c *Cache[A, V]) compute(ctx context.Context, key string, args A) (Entry[V], error) {
	start := time.Now()
	value, err := c.fn(ctx, args)
	c.metrics.Computation(c.namespace, time.Since(start), err)

	if err != nil {
		c.logger.Warn("method cache computation failed", zap.String("key", key), zap.Error(err))
		return Entry[V]{}, cache.NewComputationError(key, err)
	}

	return c.newEntry(value), nil
}

func (c *Cache[A, V]) newEntry(value V) Entry[V] {
	now := c.now()
	entry := Entry[V]{Value: value, StoredAt: now}
	if c.ttl > 0 {
		entry.ExpiresAt = now.Add(c.ttl)
	}
	return entry
}
