package methodcache

import "time"

// Entry is what a method cache stores under a key. Fields are exported so
// byte-oriented backends can encode it.
type Entry[V any] struct {
	Value     V         `msgpack:"value" json:"value"`
	StoredAt  time.Time `msgpack:"stored_at" json:"stored_at"`
	ExpiresAt time.Time `msgpack:"expires_at" json:"expires_at"`
}

// Expired reports whether the entry has a deadline at or before now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
