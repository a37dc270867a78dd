package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrComputationFailed marks errors returned by a wrapped computation on a cache miss.
	ErrComputationFailed = errors.New("cache: computation failed")

	// ErrInvalidKey is returned when a cache key cannot be derived from call arguments.
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrInvalidResultType is returned when a cached value does not match the requested type.
	ErrInvalidResultType = errors.New("cache: invalid result type")
)

// ComputationError carries the original error of a failed computation.
// errors.Is matches both ErrComputationFailed and the wrapped error.
type ComputationError struct {
	Key string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cache: computation for key %q failed: %v", e.Key, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

func (e *ComputationError) Is(target error) bool {
	return target == ErrComputationFailed
}

// NewComputationError wraps err unless it already is a ComputationError,
// so coalesced waiters and the leader observe the same value.
func NewComputationError(key string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ComputationError
	if errors.As(err, &ce) {
		return err
	}
	return &ComputationError{Key: key, Err: err}
}

// KeyError reports a failed key derivation.
type KeyError struct {
	Args any
	Err  error
}

func (e *KeyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache: invalid key for args %#v", e.Args)
	}
	return fmt.Sprintf("cache: invalid key for args %#v: %v", e.Args, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func (e *KeyError) Is(target error) bool {
	return target == ErrInvalidKey
}
