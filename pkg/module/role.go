// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RoleCustom is an ordinary module with no structural precedence.
	RoleCustom Role = "custom"
	// RoleInfrastructure modules are placed before every enabled
	// non-infrastructure module.
	RoleInfrastructure Role = "infrastructure"
	// RolePostProcessor modules are placed after every enabled
	// non-post-processor module.
	RolePostProcessor Role = "post-processor"
)

// ErrInvalidRole is the sentinel wrapped by InvalidRoleError.
var ErrInvalidRole = errors.New("invalid module role")

type (
	// Role is the structural role of a module within the bootstrap order.
	Role string

	// InvalidRoleError is returned when a Role value is not recognized.
	InvalidRoleError struct {
		Value Role
	}
)

// Error implements the error interface.
func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid module role %q (valid: %s, %s, %s)",
		string(e.Value), RoleCustom, RoleInfrastructure, RolePostProcessor)
}

// Unwrap returns ErrInvalidRole so callers can use errors.Is.
func (e *InvalidRoleError) Unwrap() error { return ErrInvalidRole }

// String returns the string representation of the Role.
func (r Role) String() string { return string(r) }

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustom, RoleInfrastructure, RolePostProcessor:
		return true
	default:
		return false
	}
}

// Validate returns nil if the Role is valid, or an *InvalidRoleError otherwise.
func (r Role) Validate() error {
	if r.IsValid() {
		return nil
	}
	return &InvalidRoleError{Value: r}
}

// ParseRole converts user input into a Role. The empty string maps to
// RoleCustom; matching is case-insensitive and accepts "_" for "-".
func ParseRole(s string) (Role, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch normalized {
	case "":
		return RoleCustom, nil
	case "infra":
		return RoleInfrastructure, nil
	case "postprocessor":
		return RolePostProcessor, nil
	}
	r := Role(normalized)
	if err := r.Validate(); err != nil {
		return "", &InvalidRoleError{Value: Role(s)}
	}
	return r, nil
}
