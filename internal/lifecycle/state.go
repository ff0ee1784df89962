// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
)

const (
	// StateCreated means Start has not been called.
	StateCreated State = iota
	// StateBootstrapping means modules are being resolved and bootstrapped.
	StateBootstrapping
	// StateRunning means every enabled module has been bootstrapped.
	StateRunning
	// StateStopping means shutdown is tearing modules down.
	StateStopping
	// StateStopped is terminal: every module has been torn down.
	StateStopped
	// StateFailed is terminal: bootstrap failed and was rolled back.
	StateFailed
)

// ErrInvalidTransition is the sentinel wrapped by TransitionError.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

type (
	// State is the lifecycle state of an application.
	State int32

	// TransitionError is returned when a transition is attempted from a state
	// that does not allow it.
	TransitionError struct {
		From State
		To   State
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBootstrapping:
		return "bootstrapping"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

// Unwrap returns ErrInvalidTransition so callers can use errors.Is.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
