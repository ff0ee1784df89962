// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"errors"
	"fmt"
)

const (
	// PhaseResolve is bootstrap order resolution.
	PhaseResolve Phase = "resolve"
	// PhaseBeforeContext is the installer hook that runs before any module.
	PhaseBeforeContext Phase = "before-context-bootstrap"
	// PhaseBeforeModule is the installer hook that runs before each module.
	PhaseBeforeModule Phase = "before-module-bootstrap"
	// PhaseSetup is the module's own setup function.
	PhaseSetup Phase = "setup"
	// PhaseRegister is container registration with the registry.
	PhaseRegister Phase = "register"
	// PhasePublish is exposure of the module's components.
	PhasePublish Phase = "publish"
	// PhaseAfterModule is the installer hook that runs after each module.
	PhaseAfterModule Phase = "after-module-bootstrap"
	// PhaseAfterContext is the installer hook that runs after every module.
	PhaseAfterContext Phase = "after-context-bootstrap"
)

// ErrBootstrap is the sentinel wrapped by BootstrapError.
var ErrBootstrap = errors.New("bootstrap failed")

type (
	// Phase names a step of the bootstrap.
	Phase string

	// BootstrapError reports the phase and module in which bootstrap
	// failed. Module is empty for phases that are not tied to one module.
	BootstrapError struct {
		Module string
		Phase  Phase
		Err    error
	}
)

// Error implements the error interface.
func (e *BootstrapError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("bootstrap failed during %s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("bootstrap of module %q failed during %s: %v", e.Module, e.Phase, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *BootstrapError) Unwrap() []error { return []error{ErrBootstrap, e.Err} }
