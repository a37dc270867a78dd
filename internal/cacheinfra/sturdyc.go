package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// SturdycService is the in-process backend. sturdyc shards the store, and its
// GetOrFetch tracks in-flight fetches so concurrent misses for one key share a
// single call. Failed fetches are never stored.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and initializes a sturdyc client.
//
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New;
// everything else goes through ToSturdycOptions.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.sturdycTTL(),
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the value stored under key, or runs fetchFn and stores its result.
// The result is nil whenever the error is not.
// fetchFn must have the signature func(context.Context) (T, error).
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	// validate before handing off so sturdyc never sees a malformed function
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	value, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetchFn(ctx, fetchFn)
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key, replacing any previous entry.
func (s *SturdycService) Set(ctx context.Context, key string, value any) error {
	s.client.Set(key, value)
	return nil
}

// Peek reads key without fetching. Intended for diagnostics and tests.
func (s *SturdycService) Peek(key string) (any, bool) {
	return s.client.Get(key)
}

// Len reports the number of stored keys.
func (s *SturdycService) Len() int {
	return len(s.client.ScanKeys())
}

// Delete removes a single entry. Deleting a missing key is a no-op.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *SturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys removes multiple entries.
func (s *SturdycService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}
