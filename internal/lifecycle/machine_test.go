// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMachine_HappyPath(t *testing.T) {
	t.Parallel()

	m := New(1)
	if m.State() != StateCreated {
		t.Fatalf("initial state = %s, want created", m.State())
	}
	if err := m.Begin(t.Context()); err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	if err := m.Ready(); err != nil {
		t.Fatalf("Ready() unexpected error: %v", err)
	}
	if err := m.WaitReady(t.Context()); err != nil {
		t.Fatalf("WaitReady() unexpected error: %v", err)
	}
	if !m.BeginStop() {
		t.Fatal("BeginStop() should report true from running")
	}
	if m.BeginStop() {
		t.Error("second BeginStop() should report false")
	}
	m.Stopped()
	if m.State() != StateStopped || !m.State().IsTerminal() {
		t.Errorf("final state = %s, want stopped", m.State())
	}
	select {
	case <-m.Done():
	default:
		t.Error("Done() should be closed after Stopped()")
	}
}

func TestMachine_BeginTwice(t *testing.T) {
	t.Parallel()

	m := New(1)
	if err := m.Begin(t.Context()); err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}
	err := m.Begin(t.Context())
	var transErr *TransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("expected *TransitionError, got %v", err)
	}
	if transErr.From != StateBootstrapping {
		t.Errorf("From = %s, want bootstrapping", transErr.From)
	}
}

func TestMachine_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	m := New(1)
	if err := m.Begin(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Begin() error = %v, want context.Canceled", err)
	}
	if m.State() != StateFailed {
		t.Errorf("state = %s, want failed", m.State())
	}
}

func TestMachine_FailUnblocksWaitReady(t *testing.T) {
	t.Parallel()

	m := New(1)
	if err := m.Begin(t.Context()); err != nil {
		t.Fatalf("Begin() unexpected error: %v", err)
	}

	boom := errors.New("boom")
	go func() {
		time.Sleep(10 * time.Millisecond)
		m.Fail(boom)
	}()

	if err := m.WaitReady(t.Context()); !errors.Is(err, boom) {
		t.Fatalf("WaitReady() = %v, want boom", err)
	}
	if !errors.Is(m.LastError(), boom) {
		t.Errorf("LastError() = %v", m.LastError())
	}
	select {
	case err := <-m.Err():
		if !errors.Is(err, boom) {
			t.Errorf("Err() delivered %v", err)
		}
	default:
		t.Error("Fail should report on Err()")
	}
}

func TestMachine_StopBeforeStart(t *testing.T) {
	t.Parallel()

	m := New(0)
	if m.BeginStop() {
		t.Error("BeginStop() on a created machine should report false")
	}
	if m.State() != StateStopped {
		t.Errorf("state = %s, want stopped", m.State())
	}
}

func TestMachine_ReportDropsWhenFull(t *testing.T) {
	t.Parallel()

	m := New(1)
	m.Report(errors.New("first"))
	m.Report(errors.New("second"))
	m.Report(nil)
	if got := len(m.Err()); got != 1 {
		t.Errorf("buffered errors = %d, want 1", got)
	}
}
