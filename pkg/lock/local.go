// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"context"
	"sync"
)

type (
	// Local is an in-process lock for single-instance deployments and tests.
	Local struct {
		key string
		sem chan struct{}
	}

	localLock struct {
		l    *Local
		once sync.Once
	}
)

// NewLocal creates an unheld Local lock named key.
func NewLocal(key string) *Local {
	return &Local{key: key, sem: make(chan struct{}, 1)}
}

// Acquire implements Provider.
func (l *Local) Acquire(ctx context.Context) (Lock, error) {
	select {
	case l.sem <- struct{}{}:
		return &localLock{l: l}, nil
	case <-ctx.Done():
		return nil, &LockError{Backend: "local", Key: l.key, Op: "acquire", Err: ctx.Err()}
	}
}

// Held reports whether the lock is currently held.
func (l *Local) Held() bool { return len(l.sem) == 1 }

// Release implements Lock. Releasing twice returns ErrNotHeld.
func (h *localLock) Release(context.Context) error {
	released := false
	h.once.Do(func() {
		<-h.l.sem
		released = true
	})
	if !released {
		return &LockError{Backend: "local", Key: h.l.key, Op: "release", Err: ErrNotHeld}
	}
	return nil
}
