//go:build integration

package methodcache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-method-cache/cache"
	"github.com/goliatone/go-method-cache/pkg/testsupport"
)

func newRedisService(t *testing.T) cache.CacheService {
	t.Helper()

	cfg := cache.DefaultConfig()
	cfg.Backend = cache.BackendRedis
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}
	cfg.Redis.Prefix = "test-" + uuid.NewString()
	cfg.Redis.HashKeys = true

	service, err := cache.NewCacheService(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = service.DeleteByPrefix(context.Background(), "") })
	return service
}

func TestRedis_StaleUntilInvalidated(t *testing.T) {
	service := newRedisService(t)
	counter := testsupport.NewCallCounter()
	table := newBookTable(book{ID: 1, Title: "War and Peace"})
	ctx := context.Background()

	c, err := New("BookService.GetBook", testsupport.Counted(counter, "find", table.find), service, WithTTL(time.Hour))
	require.NoError(t, err)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "War and Peace", got.Title)

	table.setTitle(1, "Harry met Sally")

	got, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "War and Peace", got.Title)
	assert.Equal(t, 1, counter.Count("find"))

	require.NoError(t, c.Invalidate(ctx, 1))

	got, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Harry met Sally", got.Title)
	assert.Equal(t, 2, counter.Count("find"))
}

func TestRedis_LongKeysAreHashed(t *testing.T) {
	type query struct {
		Tags []string
	}

	service := newRedisService(t)
	ctx := context.Background()
	calls := 0

	c, err := New("search", func(ctx context.Context, q query) (int, error) {
		calls++
		return len(q.Tags), nil
	}, service)
	require.NoError(t, err)

	tags := make([]string, 64)
	for i := range tags {
		tags[i] = uuid.NewString()
	}

	for i := 0; i < 2; i++ {
		n, err := c.Get(ctx, query{Tags: tags})
		require.NoError(t, err)
		assert.Equal(t, 64, n)
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, c.InvalidateAll(ctx))
	_, err = c.Get(ctx, query{Tags: tags})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
