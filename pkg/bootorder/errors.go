// SPDX-License-Identifier: MPL-2.0

package bootorder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingDependency is the sentinel wrapped by MissingDependencyError.
	ErrMissingDependency = errors.New("missing required dependency")
	// ErrDisabledDependency is the sentinel wrapped by DisabledDependencyError.
	ErrDisabledDependency = errors.New("required dependency is disabled")
	// ErrCyclicDependency is the sentinel wrapped by CyclicDependencyError.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrVerification is the sentinel wrapped by VerificationError.
	ErrVerification = errors.New("bootstrap order verification failed")
)

type (
	// MissingDependencyError is returned when a module requires a name that
	// no registered module carries.
	MissingDependencyError struct {
		Module     string
		Dependency string
	}

	// DisabledDependencyError is returned when an enabled module requires a
	// disabled one.
	DisabledDependencyError struct {
		Module     string
		Dependency string
	}

	// CyclicDependencyError is returned when required edges, including
	// implicit ones, form a cycle. Module is the module reached twice.
	CyclicDependencyError struct {
		Module string
		Path   []string
	}

	// VerificationError reports a module placed before one of its effective
	// required dependencies. It indicates an internal inconsistency.
	VerificationError struct {
		Module     string
		Dependency string
	}
)

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("module %q requires %q, which is not registered", e.Module, e.Dependency)
}

// Unwrap returns ErrMissingDependency so callers can use errors.Is.
func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// Error implements the error interface.
func (e *DisabledDependencyError) Error() string {
	return fmt.Sprintf("module %q requires %q, which is disabled", e.Module, e.Dependency)
}

// Unwrap returns ErrDisabledDependency so callers can use errors.Is.
func (e *DisabledDependencyError) Unwrap() error { return ErrDisabledDependency }

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("cyclic dependency involving module %q", e.Module)
	}
	return fmt.Sprintf("cyclic dependency involving module %q: %s", e.Module, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCyclicDependency so callers can use errors.Is.
func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// Error implements the error interface.
func (e *VerificationError) Error() string {
	return fmt.Sprintf("module %q is placed before its dependency %q", e.Module, e.Dependency)
}

// Unwrap returns ErrVerification so callers can use errors.Is.
func (e *VerificationError) Unwrap() error { return ErrVerification }
