package testsupport

import (
	"context"
	"sync"
)

// CallCounter counts calls per key. It is safe for concurrent use.
type CallCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

// NewCallCounter returns an empty counter.
func NewCallCounter() *CallCounter {
	return &CallCounter{calls: make(map[string]int)}
}

// Inc records one call for key.
func (c *CallCounter) Inc(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[key]++
}

// Count returns the number of calls recorded for key.
func (c *CallCounter) Count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

// Total returns the number of calls across all keys.
func (c *CallCounter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

// Reset forgets every recorded call.
func (c *CallCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
}

// Counted wraps fn so each call is recorded under key before fn runs.
func Counted[A, V any](c *CallCounter, key string, fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, args A) (V, error) {
		c.Inc(key)
		return fn(ctx, args)
	}
}
