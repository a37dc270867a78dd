package di

import (
	"io"

	"go.uber.org/zap"

	"github.com/goliatone/go-method-cache/cache"
	"github.com/goliatone/go-method-cache/methodcache"
)

// Container provides dependency injection for method caches.
// It owns one cache service and one key serializer shared by every cache it
// builds, plus the logger and metrics recorder handed to each of them.
type Container struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	config        cache.Config
	logger        *zap.Logger
	metrics       methodcache.MetricsRecorder
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger passed to every method cache.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the recorder passed to every method cache.
func WithMetrics(recorder methodcache.MetricsRecorder) Option {
	return func(c *Container) {
		c.metrics = recorder
	}
}

// WithCacheService replaces the backend built from the config.
func WithCacheService(service cache.CacheService) Option {
	return func(c *Container) {
		c.cacheService = service
	}
}

// NewContainer creates a container with the backend selected by config.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	c := &Container{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cacheService == nil {
		service, err := cache.NewCacheService(config)
		if err != nil {
			return nil, err
		}
		c.cacheService = service
	}

	c.keySerializer = cache.NewDefaultKeySerializer()

	c.logger.Debug("method cache container ready",
		zap.String("backend", backendName(config)),
		zap.Duration("ttl", config.TTL),
	)

	return c, nil
}

// NewContainerWithDefaults creates a container with the in-process backend.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// CacheService returns the shared cache service.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the shared key serializer.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns the configuration the container was built with.
func (c *Container) Config() cache.Config {
	return c.config
}

// Logger returns the container logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Close releases the backend when it holds external resources.
func (c *Container) Close() error {
	if closer, ok := c.cacheService.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewMethodCache wraps fn with a method cache backed by the container.
// opts are applied after the container defaults and can override them.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewMethodCache(container, "BookService.GetBook", store.Find)
func NewMethodCache[A, V any](c *Container, name string, fn methodcache.Func[A, V], opts ...methodcache.Option) (*methodcache.Cache[A, V], error) {
	defaults := []methodcache.Option{
		methodcache.WithKeySerializer(c.keySerializer),
		methodcache.WithLogger(c.logger),
		methodcache.WithMetrics(c.metrics),
	}
	return methodcache.New(name, fn, c.cacheService, append(defaults, opts...)...)
}

func backendName(config cache.Config) string {
	if config.Backend == "" {
		return cache.BackendMemory
	}
	return config.Backend
}
