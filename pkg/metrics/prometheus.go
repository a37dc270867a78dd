// Package metrics exports method cache events to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// PrometheusRecorder implements methodcache.MetricsRecorder. One recorder can
// be shared by every cache; the cache namespace becomes the "cache" label.
type PrometheusRecorder struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	computations  *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the method cache collectors on reg under
// namespace. Registering the same namespace twice on one registry reuses the
// collectors that are already there.
func NewPrometheusRecorder(reg prometheus.Registerer, namespace string) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "method_cache",
			Name:      "hits_total",
			Help:      "Reads served from the cache.",
		}, []string{"cache"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "method_cache",
			Name:      "misses_total",
			Help:      "Reads that ran the wrapped computation.",
		}, []string{"cache"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "method_cache",
			Name:      "invalidations_total",
			Help:      "Explicit or write-through invalidations.",
		}, []string{"cache"}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "method_cache",
			Name:      "computations_total",
			Help:      "Wrapped computations by result.",
		}, []string{"cache", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "method_cache",
			Name:      "computation_duration_seconds",
			Help:      "Duration of wrapped computations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
	}

	var err error
	if r.hits, err = register(reg, r.hits); err != nil {
		return nil, err
	}
	if r.misses, err = register(reg, r.misses); err != nil {
		return nil, err
	}
	if r.invalidations, err = register(reg, r.invalidations); err != nil {
		return nil, err
	}
	if r.computations, err = register(reg, r.computations); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}

	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PrometheusRecorder) Hit(cache string) {
	r.hits.WithLabelValues(cache).Inc()
}

func (r *PrometheusRecorder) Miss(cache string) {
	r.misses.WithLabelValues(cache).Inc()
}

func (r *PrometheusRecorder) Invalidation(cache string) {
	r.invalidations.WithLabelValues(cache).Inc()
}

func (r *PrometheusRecorder) Computation(cache string, duration time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	r.computations.WithLabelValues(cache, result).Inc()
	r.duration.WithLabelValues(cache).Observe(duration.Seconds())
}
