// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocal_MutualExclusion(t *testing.T) {
	t.Parallel()

	l := NewLocal("bootstrap")
	held, err := l.Acquire(t.Context())
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	if !l.Held() {
		t.Fatal("Held() should be true after Acquire")
	}

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Acquire: expected deadline exceeded, got %v", err)
	}

	if err := held.Release(t.Context()); err != nil {
		t.Fatalf("Release() unexpected error: %v", err)
	}
	if l.Held() {
		t.Error("Held() should be false after Release")
	}
	if err := held.Release(t.Context()); !errors.Is(err, ErrNotHeld) {
		t.Errorf("double Release: expected ErrNotHeld, got %v", err)
	}

	again, err := l.Acquire(t.Context())
	if err != nil {
		t.Fatalf("re-Acquire unexpected error: %v", err)
	}
	_ = again.Release(t.Context())
}

func TestNoop(t *testing.T) {
	t.Parallel()

	l, err := Noop().Acquire(t.Context())
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	if err := l.Release(t.Context()); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}
}

func TestAdvisoryKey_Stable(t *testing.T) {
	t.Parallel()

	if advisoryKey("bootkit") != advisoryKey("bootkit") {
		t.Error("advisoryKey must be deterministic")
	}
	if advisoryKey("a") == advisoryKey("b") {
		t.Error("distinct names should map to distinct keys")
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	l := NewLocal("bootstrap")
	held, err := l.Acquire(t.Context())
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	defer func() { _ = held.Release(t.Context()) }()

	bounded := WithTimeout(l, 20*time.Millisecond)
	if _, err := bounded.Acquire(t.Context()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() on held lock error = %v, want deadline exceeded", err)
	}
}
