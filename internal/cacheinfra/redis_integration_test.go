//go:build integration

package cacheinfra

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestRedisService(t *testing.T, rewrite func(string) string) *RedisService {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	cfg := validConfig()
	cfg.Backend = BackendRedis
	cfg.RedisURL = url
	cfg.RedisPrefix = "test-" + uuid.NewString()

	service, err := NewRedisServiceFromURL(cfg, rewrite)
	require.NoError(t, err)
	require.NoError(t, service.Client().Ping(context.Background()).Err(), "failed to connect to Redis")

	t.Cleanup(func() {
		ctx := context.Background()
		_ = service.DeleteByPrefix(ctx, "")
		_ = service.Client().Close()
	})

	return service
}

func TestRedisService_GetOrFetch(t *testing.T) {
	service := newTestRedisService(t, nil)
	ctx := context.Background()
	var calls atomic.Int32

	fetch := func(ctx context.Context) (book, error) {
		calls.Add(1)
		return book{ID: 1, Title: "War and Peace"}, nil
	}

	first, err := service.GetOrFetch(ctx, "get_book::1", fetch)
	require.NoError(t, err)
	second, err := service.GetOrFetch(ctx, "get_book::1", fetch)
	require.NoError(t, err)

	assert.Equal(t, book{ID: 1, Title: "War and Peace"}, first)
	assert.Equal(t, first, second, "decoded value should keep the fetch result type")
	assert.EqualValues(t, 1, calls.Load())
}

func TestRedisService_FailedFetchLeavesNoEntry(t *testing.T) {
	service := newTestRedisService(t, nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := service.GetOrFetch(ctx, "get_book::2", func(ctx context.Context) (book, error) {
		return book{}, boom
	})
	require.ErrorIs(t, err, boom)

	n, err := service.Client().Exists(ctx, service.storedKey("get_book::2")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisService_SetDeleteAndPrefix(t *testing.T) {
	service := newTestRedisService(t, func(key string) string { return key })
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, "get_book::1", book{ID: 1, Title: "Harry met Sally"}))
	require.NoError(t, service.Set(ctx, "get_book::2", book{ID: 2}))
	require.NoError(t, service.Set(ctx, "list_books::all", []book{{ID: 1}}))

	value, err := service.GetOrFetch(ctx, "get_book::1", func(ctx context.Context) (book, error) {
		return book{}, errors.New("should not fetch")
	})
	require.NoError(t, err)
	assert.Equal(t, book{ID: 1, Title: "Harry met Sally"}, value)

	require.NoError(t, service.Delete(ctx, "never-stored"))
	require.NoError(t, service.DeleteByPrefix(ctx, "get_book"))

	n, err := service.Client().Exists(ctx, service.storedKey("get_book::1"), service.storedKey("get_book::2")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, service.InvalidateKeys(ctx, []string{"list_books::all"}))
	_, err = service.Client().Get(ctx, service.storedKey("list_books::all")).Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisService_LeaderCancellationKeepsWaiters(t *testing.T) {
	service := newTestRedisService(t, nil)
	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	fetch := func(ctx context.Context) (book, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return book{}, err
		}
		return book{ID: 3, Title: "Anna Karenina"}, nil
	}

	leaderErr := make(chan error, 1)
	go func() {
		_, err := service.GetOrFetch(leaderCtx, "get_book::3", fetch)
		leaderErr <- err
	}()
	<-started

	type result struct {
		value any
		err   error
	}
	waiter := make(chan result, 1)
	go func() {
		v, err := service.GetOrFetch(context.Background(), "get_book::3", fetch)
		waiter <- result{value: v, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	got := <-waiter
	require.NoError(t, got.err)
	assert.Equal(t, book{ID: 3, Title: "Anna Karenina"}, got.value)
	require.NoError(t, <-leaderErr)
	assert.EqualValues(t, 1, calls.Load())
}
