// SPDX-License-Identifier: MPL-2.0

// Package lifecycle tracks the single-use lifecycle of a bootstrapped
// application: created, bootstrapping, running, stopping, then stopped or
// failed. State reads are lock-free; asynchronous errors raised after a
// successful bootstrap are delivered on a buffered channel.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Machine is the lifecycle state machine. The zero value is not usable; use
// New.
type Machine struct {
	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	readyCh chan struct{}
	doneCh  chan struct{}
	errCh   chan error
}

// New creates a Machine in StateCreated. errBuffer sizes the asynchronous
// error channel; values below one are raised to one.
func New(errBuffer int) *Machine {
	if errBuffer < 1 {
		errBuffer = 1
	}
	m := &Machine{
		readyCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
		errCh:   make(chan error, errBuffer),
	}
	m.state.Store(int32(StateCreated))
	return m
}

// State returns the current state.
func (m *Machine) State() State { return State(m.state.Load()) }

// Err returns the channel carrying asynchronous errors.
func (m *Machine) Err() <-chan error { return m.errCh }

// LastError returns the error that moved the machine to StateFailed.
func (m *Machine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Begin moves Created to Bootstrapping. A context that is already done fails
// the machine instead.
func (m *Machine) Begin(ctx context.Context) error {
	select {
	case <-ctx.Done():
		err := fmt.Errorf("context cancelled before bootstrap: %w", ctx.Err())
		m.Fail(err)
		return err
	default:
	}
	if !m.state.CompareAndSwap(int32(StateCreated), int32(StateBootstrapping)) {
		return &TransitionError{From: m.State(), To: StateBootstrapping}
	}
	return nil
}

// Ready moves Bootstrapping to Running and releases WaitReady callers.
func (m *Machine) Ready() error {
	if !m.state.CompareAndSwap(int32(StateBootstrapping), int32(StateRunning)) {
		return &TransitionError{From: m.State(), To: StateRunning}
	}
	close(m.readyCh)
	return nil
}

// Fail records err and moves the machine to StateFailed. A machine already
// in a terminal state keeps it; err is still reported.
func (m *Machine) Fail(err error) {
	for {
		current := m.State()
		if current.IsTerminal() {
			break
		}
		if m.state.CompareAndSwap(int32(current), int32(StateFailed)) {
			m.mu.Lock()
			m.lastErr = err
			m.mu.Unlock()
			close(m.doneCh)
			break
		}
	}
	m.Report(err)
}

// BeginStop moves Running to Stopping. It reports false when there is
// nothing to stop; a machine that never started is marked stopped.
func (m *Machine) BeginStop() bool {
	for {
		current := m.State()
		switch current {
		case StateCreated:
			if m.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				close(m.doneCh)
				return false
			}
		case StateRunning:
			if m.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
				return true
			}
		default:
			return false
		}
	}
}

// Stopped moves Stopping to Stopped.
func (m *Machine) Stopped() {
	if m.state.CompareAndSwap(int32(StateStopping), int32(StateStopped)) {
		close(m.doneCh)
	}
}

// Report delivers err on the Err channel without blocking. Errors are dropped
// when the buffer is full.
func (m *Machine) Report(err error) {
	if err == nil {
		return
	}
	select {
	case m.errCh <- err:
	default:
	}
}

// WaitReady blocks until the machine is running, reaches a terminal state,
// or ctx is done.
func (m *Machine) WaitReady(ctx context.Context) error {
	select {
	case <-m.readyCh:
		return nil
	case <-m.doneCh:
		if err := m.LastError(); err != nil {
			return err
		}
		return &TransitionError{From: m.State(), To: StateRunning}
	case <-ctx.Done():
		return fmt.Errorf("waiting for bootstrap: %w", ctx.Err())
	}
}

// Done is closed once the machine reaches a terminal state.
func (m *Machine) Done() <-chan struct{} { return m.doneCh }
