package methodcache

import "time"

// MetricsRecorder receives per-cache events. Implementations must be safe for
// concurrent use.
type MetricsRecorder interface {
	Hit(cache string)
	Miss(cache string)
	Invalidation(cache string)
	Computation(cache string, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) Hit(string)                               {}
func (nopRecorder) Miss(string)                              {}
func (nopRecorder) Invalidation(string)                      {}
func (nopRecorder) Computation(string, time.Duration, error) {}
