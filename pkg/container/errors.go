// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFinalized is returned when registering into a finalized container.
	ErrFinalized = errors.New("container is finalized")
	// ErrClosed is returned when using a closed container.
	ErrClosed = errors.New("container is closed")
	// ErrComponentNotFound is the sentinel wrapped by ComponentNotFoundError.
	ErrComponentNotFound = errors.New("component not found")
	// ErrCircularReference is the sentinel wrapped by CircularReferenceError.
	ErrCircularReference = errors.New("circular component reference")
	// ErrInvalidDefinition is the sentinel wrapped by InvalidDefinitionError.
	ErrInvalidDefinition = errors.New("invalid component definition")
)

type (
	// ComponentNotFoundError is returned when no definition carries a name.
	ComponentNotFoundError struct {
		Module string
		Name   string
	}

	// DuplicateComponentError is returned when a name or alias is already
	// taken in the container.
	DuplicateComponentError struct {
		Module string
		Name   string
	}

	// InvalidDefinitionError reports a malformed definition.
	InvalidDefinitionError struct {
		Module string
		Name   string
		Reason string
	}

	// CircularReferenceError reports a factory that transitively requests
	// its own component while being built.
	CircularReferenceError struct {
		Path []string
	}

	// TypeMismatchError is returned when a component cannot be converted to
	// the requested type.
	TypeMismatchError struct {
		Component string
		Expected  string
		Actual    string
	}

	// NoForwarderError is returned when a forwarding definition is resolved
	// in a container that has no Forwarder.
	NoForwarderError struct {
		Module string
		Name   string
	}
)

// Error implements the error interface.
func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found in module %q", e.Name, e.Module)
}

// Unwrap returns ErrComponentNotFound so callers can use errors.Is.
func (e *ComponentNotFoundError) Unwrap() error { return ErrComponentNotFound }

// Error implements the error interface.
func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component name %q is already registered in module %q", e.Name, e.Module)
}

// Error implements the error interface.
func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid definition %q in module %q: %s", e.Name, e.Module, e.Reason)
}

// Unwrap returns ErrInvalidDefinition so callers can use errors.Is.
func (e *InvalidDefinitionError) Unwrap() error { return ErrInvalidDefinition }

// Error implements the error interface.
func (e *CircularReferenceError) Error() string {
	return "circular component reference: " + strings.Join(e.Path, " -> ")
}

// Unwrap returns ErrCircularReference so callers can use errors.Is.
func (e *CircularReferenceError) Unwrap() error { return ErrCircularReference }

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("component %s has type %s, expected %s", e.Component, e.Actual, e.Expected)
}

// Error implements the error interface.
func (e *NoForwarderError) Error() string {
	return fmt.Sprintf("component %q in module %q forwards to another module but no forwarder is configured", e.Name, e.Module)
}
