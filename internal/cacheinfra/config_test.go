package cacheinfra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Backend:            BackendMemory,
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 10000, cfg.Capacity)
	assert.Equal(t, 256, cfg.NumShards)
	assert.Zero(t, cfg.TTL, "backend expiry is opt-in")
	assert.Equal(t, noExpiryTTL, cfg.sturdycTTL())
	assert.Equal(t, 10, cfg.EvictionPercentage)
	assert.Nil(t, cfg.EarlyRefresh, "early refresh would rewrite values behind explicit invalidation")
	assert.False(t, cfg.MissingRecordStorage)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty backend means memory", mutate: func(c *Config) { c.Backend = "" }},
		{name: "zero ttl disables expiry", mutate: func(c *Config) { c.TTL = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "memcached" }, field: "Backend"},
		{name: "redis without url", mutate: func(c *Config) { c.Backend = BackendRedis }, field: "RedisURL"},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, field: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, field: "NumShards"},
		{name: "negative ttl", mutate: func(c *Config) { c.TTL = -time.Second }, field: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, field: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, field: "EvictionPercentage"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -1 }, field: "EvictionInterval"},
		{
			name: "early refresh min negative",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: -time.Second, MaxAsyncRefreshTime: time.Second}
			},
			field: "EarlyRefresh.MinAsyncRefreshTime",
		},
		{
			name: "early refresh max below min",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: 2 * time.Second, MaxAsyncRefreshTime: time.Second}
			},
			field: "EarlyRefresh.MaxAsyncRefreshTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, cfg.ToSturdycOptions())

	cfg.MissingRecordStorage = true
	assert.Len(t, cfg.ToSturdycOptions(), 1)

	cfg.EvictionInterval = time.Second
	cfg.EarlyRefresh = &EarlyRefreshConfig{
		MinAsyncRefreshTime: time.Second,
		MaxAsyncRefreshTime: 2 * time.Second,
		SyncRefreshTime:     3 * time.Second,
		RetryBaseDelay:      time.Millisecond,
	}
	assert.Len(t, cfg.ToSturdycOptions(), 3)
}

func TestConfig_SturdycTTL(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, time.Minute, cfg.sturdycTTL())

	cfg.TTL = 0
	assert.Equal(t, noExpiryTTL, cfg.sturdycTTL())
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	assert.Equal(t, "config error in field Capacity: must be greater than 0", err.Error())
}
