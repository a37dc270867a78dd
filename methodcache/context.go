package methodcache

import "context"

type bypassContextKey struct{}

// BypassCache marks ctx so that Get recomputes instead of reading the cache.
// The fresh result still replaces the stored entry.
func BypassCache(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bypassContextKey{}, true)
}

func bypassed(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(bypassContextKey{}).(bool)
	return v
}
