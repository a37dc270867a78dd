package methodcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-method-cache/cache"
)

// Policy decides what a successful Mutate does to the cached entry.
type Policy int

const (
	// PolicyExplicit leaves the cache untouched on mutation; callers invalidate.
	PolicyExplicit Policy = iota
	// PolicyWriteThrough invalidates the mutated key after a successful mutation.
	PolicyWriteThrough
)

func (p Policy) String() string {
	switch p {
	case PolicyExplicit:
		return "explicit"
	case PolicyWriteThrough:
		return "write-through"
	default:
		return "unknown"
	}
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	keyFunc    any
	serializer cache.KeySerializer
	ttl        time.Duration
	policy     Policy
	logger     *zap.Logger
	metrics    MetricsRecorder
	now        func() time.Time
}

func defaultOptions() *options {
	return &options{
		serializer: cache.NewDefaultKeySerializer(),
		policy:     PolicyExplicit,
		logger:     zap.NewNop(),
		metrics:    nopRecorder{},
		now:        time.Now,
	}
}

// WithKeyFunc replaces the default reflection-based key derivation. The argument
// type of fn must match the cache's argument type; New fails otherwise.
// The returned key is placed under the cache namespace.
func WithKeyFunc[A any](fn KeyFunc[A]) Option {
	return func(o *options) {
		o.keyFunc = fn
	}
}

// WithKeySerializer sets the serializer used by the default key derivation.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(o *options) {
		if serializer != nil {
			o.serializer = serializer
		}
	}
}

// WithTTL sets a per-entry expiry checked on read. Zero disables it.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithPolicy sets the invalidation policy applied by Mutate.
func WithPolicy(policy Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithClock overrides time.Now for expiry bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
