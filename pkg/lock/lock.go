// SPDX-License-Identifier: MPL-2.0

// Package lock provides the distributed lock that serializes bootstrap
// installer phases across processes. A Provider hands out a Lock that must
// be released exactly once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"
)

var (
	// ErrNotHeld is returned when releasing a lock that is no longer held.
	ErrNotHeld = errors.New("lock not held")
)

type (
	// Provider acquires locks.
	Provider interface {
		// Acquire blocks until the lock is held or ctx is done.
		Acquire(ctx context.Context) (Lock, error)
	}

	// Lock is a held lock.
	Lock interface {
		Release(ctx context.Context) error
	}

	// LockError wraps a backend failure.
	LockError struct {
		Backend string
		Key     string
		Op      string
		Err     error
	}

	noopProvider struct{}
	noopLock     struct{}

	timeoutProvider struct {
		inner   Provider
		timeout time.Duration
	}
)

// Error implements the error interface.
func (e *LockError) Error() string {
	return fmt.Sprintf("%s lock %q: %s: %v", e.Backend, e.Key, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *LockError) Unwrap() error { return e.Err }

// Noop returns a Provider whose locks do nothing.
func Noop() Provider { return noopProvider{} }

func (noopProvider) Acquire(context.Context) (Lock, error) { return noopLock{}, nil }

func (noopLock) Release(context.Context) error { return nil }

// WithTimeout bounds every Acquire on p by d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Acquire(ctx context.Context) (Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Acquire(ctx)
}

// advisoryKey maps a lock name onto the signed 64-bit key space used by
// Postgres advisory locks.
func advisoryKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
