// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrAmbiguousComponent is the sentinel wrapped by AmbiguousComponentError.
	ErrAmbiguousComponent = errors.New("ambiguous component")
	// ErrUnresolvedComponent is the sentinel wrapped by UnresolvedComponentError.
	ErrUnresolvedComponent = errors.New("unresolved component")
	// ErrModuleNotRegistered is the sentinel wrapped by ModuleNotRegisteredError.
	ErrModuleNotRegistered = errors.New("module not registered")
	// ErrStillReferenced is the sentinel wrapped by StillReferencedError.
	ErrStillReferenced = errors.New("module still referenced")
)

type (
	// AmbiguousComponentError is returned when several candidates tie on
	// the lowest priority, or several primaries carry no priority.
	AmbiguousComponentError struct {
		Type       reflect.Type
		Candidates []string
	}

	// UnresolvedComponentError is returned when a required type lookup finds
	// no candidate, or finds several and no selection rule applies to them.
	UnresolvedComponentError struct {
		Module string
		Type   reflect.Type
		// Candidates lists the unselected candidates, if any.
		Candidates []string
	}

	// ModuleNotRegisteredError is returned for modules that are not part of
	// the bootstrap order or have no registered container.
	ModuleNotRegisteredError struct {
		Module string
	}

	// DuplicateContainerError is returned when a module's container is
	// opened or registered twice.
	DuplicateContainerError struct {
		Module string
	}

	// DuplicateExposureError is returned when two different components end
	// up with the same exposed name.
	DuplicateExposureError struct {
		Name     string
		Existing string
		Incoming string
	}

	// StillReferencedError is returned by Unregister while another live
	// module may still resolve through the module being removed.
	StillReferencedError struct {
		Module string
		By     string
	}
)

// Error implements the error interface.
func (e *AmbiguousComponentError) Error() string {
	return fmt.Sprintf("ambiguous component of type %s: %d candidates [%s]",
		e.Type, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Unwrap returns ErrAmbiguousComponent so callers can use errors.Is.
func (e *AmbiguousComponentError) Unwrap() error { return ErrAmbiguousComponent }

// Error implements the error interface.
func (e *UnresolvedComponentError) Error() string {
	msg := fmt.Sprintf("no component of type %s is visible", e.Type)
	if e.Module != "" {
		msg += fmt.Sprintf(" to module %q", e.Module)
	}
	if len(e.Candidates) > 0 {
		msg = fmt.Sprintf("no component of type %s could be selected for module %q: %d candidates without primary or priority [%s]",
			e.Type, e.Module, len(e.Candidates), strings.Join(e.Candidates, ", "))
	}
	return msg
}

// Unwrap returns ErrUnresolvedComponent so callers can use errors.Is.
func (e *UnresolvedComponentError) Unwrap() error { return ErrUnresolvedComponent }

// Error implements the error interface.
func (e *ModuleNotRegisteredError) Error() string {
	return fmt.Sprintf("module %q is not registered", e.Module)
}

// Unwrap returns ErrModuleNotRegistered so callers can use errors.Is.
func (e *ModuleNotRegisteredError) Unwrap() error { return ErrModuleNotRegistered }

// Error implements the error interface.
func (e *DuplicateContainerError) Error() string {
	return fmt.Sprintf("a container for module %q is already registered", e.Module)
}

// Error implements the error interface.
func (e *DuplicateExposureError) Error() string {
	return fmt.Sprintf("exposed name %q already refers to %s, cannot expose %s", e.Name, e.Existing, e.Incoming)
}

// Error implements the error interface.
func (e *StillReferencedError) Error() string {
	return fmt.Sprintf("module %q is still referenced by live module %q", e.Module, e.By)
}

// Unwrap returns ErrStillReferenced so callers can use errors.Is.
func (e *StillReferencedError) Unwrap() error { return ErrStillReferenced }
