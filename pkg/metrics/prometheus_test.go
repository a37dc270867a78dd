package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-method-cache/methodcache"
)

var _ methodcache.MetricsRecorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPrometheusRecorder(reg, "books")
	require.NoError(t, err)

	r.Hit("get_book")
	r.Hit("get_book")
	r.Miss("get_book")
	r.Invalidation("get_book")
	r.Computation("get_book", 10*time.Millisecond, nil)
	r.Computation("get_book", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.hits.WithLabelValues("get_book")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.misses.WithLabelValues("get_book")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invalidations.WithLabelValues("get_book")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.computations.WithLabelValues("get_book", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.computations.WithLabelValues("get_book", resultError)))

	assert.Equal(t, 1, testutil.CollectAndCount(r.duration, "books_method_cache_computation_duration_seconds"))
}

func TestPrometheusRecorder_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPrometheusRecorder(reg, "books")
	require.NoError(t, err)

	r.Miss("get_book")

	expected := `
# HELP books_method_cache_misses_total Reads that ran the wrapped computation.
# TYPE books_method_cache_misses_total counter
books_method_cache_misses_total{cache="get_book"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "books_method_cache_misses_total"))
}

func TestPrometheusRecorder_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewPrometheusRecorder(reg, "books")
	require.NoError(t, err)
	second, err := NewPrometheusRecorder(reg, "books")
	require.NoError(t, err)

	first.Hit("get_book")
	second.Hit("get_book")

	assert.Equal(t, 2.0, testutil.ToFloat64(first.hits.WithLabelValues("get_book")))
}
