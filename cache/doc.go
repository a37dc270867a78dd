// Package cache provides the backend contract and key serialization used by method caches.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: read-through storage with explicit deletes, backed by sturdyc
//     in process or by Redis when entries must be shared between processes
//   - KeySerializer: builds stable cache keys from a namespace and call arguments
//
// Most code does not use these directly; see the methodcache package, which
// wraps a read operation and stores its results through a CacheService.
//
// # Basic Usage
//
//	cfg, err := cache.LoadConfig("cache.yaml")
//	if err != nil {
//		return err
//	}
//	service, err := cache.NewCacheService(cfg)
//	if err != nil {
//		return err
//	}
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("get_book", int64(42)) // "get_book::42"
//
//	book, err := cache.GetOrFetch(ctx, service, key, func(ctx context.Context) (Book, error) {
//		return store.Find(ctx, 42)
//	})
//
// Concurrent GetOrFetch calls for one key share a single fetch. A failed fetch
// stores nothing.
//
// # Key Serialization Strategy
//
// The default key serializer uses reflection to handle various Go types:
//
//   - Function pointers and channels: %p formatting, stable within a process only
//   - Basic types: direct string representation
//   - Slices/arrays: recursive serialization of elements
//   - Maps: sorted key-value pairs for deterministic output
//   - Structs: exported fields with name:value pairs
//   - Anything else: JSON fallback
//
// ValidateKeyArg rejects arguments that cannot produce a meaningful key (nil,
// functions, channels, unsafe pointers); method caches report those as ErrInvalidKey.
//
// Redis keys can grow long with struct arguments. With Redis.HashKeys set,
// keys above Redis.HashThreshold bytes are stored as "<namespace>::h:<xxhash>",
// which keeps namespace prefix invalidation working.
//
// # Errors
//
// ErrComputationFailed and ErrInvalidKey are sentinels for errors.Is. The
// concrete *ComputationError and *KeyError types carry the key or arguments and
// unwrap to the underlying cause.
package cache
