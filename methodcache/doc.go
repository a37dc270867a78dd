// Package methodcache decorates read operations with a cache-aside layer.
//
// # Overview
//
// A Cache wraps a function with the signature func(ctx, A) (V, error) and exposes
// the same contract through Get. The first call for a key runs the function and
// stores the result; later calls for that key are served from the store until the
// entry is invalidated, replaced or expires.
//
//	service, _ := cache.NewCacheService(cache.DefaultConfig())
//	books, err := methodcache.New("BookService.GetBook", repo.Find, service)
//	if err != nil {
//		return err
//	}
//
//	book, err := books.Get(ctx, id)   // miss: calls repo.Find
//	book, err = books.Get(ctx, id)    // hit: served from the cache
//	err = books.Invalidate(ctx, id)   // next Get recomputes
//
// # Invalidation
//
// Updates to the data behind a cached call do not reach the cache on their own.
// With the default PolicyExplicit the caller decides when to call Invalidate.
// PolicyWriteThrough makes Mutate invalidate the key after a successful mutation:
//
//	books, _ := methodcache.New("books", repo.Find, service,
//		methodcache.WithPolicy(methodcache.PolicyWriteThrough))
//
//	err := books.Mutate(ctx, id, func(ctx context.Context) error {
//		return repo.UpdateTitle(ctx, id, title)
//	})
//
// # Keys
//
// Keys are "<namespace>::<args>". The namespace is the snake_case form of the
// cache name. Arguments are serialized with cache.KeySerializer; functions,
// channels and nil arguments are rejected with cache.ErrInvalidKey. WithKeyFunc
// replaces the derivation for argument types that need a custom identity.
//
// # Errors
//
// A failed computation returns a *cache.ComputationError (errors.Is matches
// cache.ErrComputationFailed and the original error) and stores nothing, so the
// next call retries. Callers coalesced onto a failed computation receive the
// same error.
//
// # Bypass and refresh
//
// Refresh recomputes and stores a value without reading the cache. BypassCache
// marks a context so Get does the same, which is useful for admin tooling.
package methodcache
