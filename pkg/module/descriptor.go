// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrInvalidDescriptor is the sentinel wrapped by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid module descriptor")
	// ErrDuplicateModule is the sentinel wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("duplicate module")
)

type (
	// Descriptor is the static definition of a module.
	Descriptor struct {
		// Name is unique within one resolution.
		Name string
		// Role controls structural placement. The zero value behaves as RoleCustom.
		Role Role
		// Enabled marks the module as participating in bootstrap.
		Enabled bool
		// Required lists modules that must be placed before this one.
		Required []string
		// Optional lists modules that should be placed before this one when
		// they are present, enabled and placement allows it.
		Optional []string
	}

	// Option configures a Descriptor built with New.
	Option func(*Descriptor)

	// InvalidDescriptorError reports a structurally invalid descriptor.
	InvalidDescriptorError struct {
		Name   string
		Reason string
	}

	// DuplicateModuleError reports two descriptors sharing one name.
	DuplicateModuleError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid module descriptor: %s", e.Reason)
	}
	return fmt.Sprintf("invalid module descriptor %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidDescriptor so callers can use errors.Is.
func (e *InvalidDescriptorError) Unwrap() error { return ErrInvalidDescriptor }

// Error implements the error interface.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q is declared more than once", e.Name)
}

// Unwrap returns ErrDuplicateModule so callers can use errors.Is.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// New returns an enabled custom module named name with opts applied.
func New(name string, opts ...Option) Descriptor {
	d := Descriptor{Name: name, Role: RoleCustom, Enabled: true}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Requires appends required dependencies.
func Requires(names ...string) Option {
	return func(d *Descriptor) { d.Required = append(d.Required, names...) }
}

// Uses appends optional dependencies.
func Uses(names ...string) Option {
	return func(d *Descriptor) { d.Optional = append(d.Optional, names...) }
}

// WithRole sets the structural role.
func WithRole(r Role) Option {
	return func(d *Descriptor) { d.Role = r }
}

// Infrastructure marks the module as infrastructure.
func Infrastructure() Option { return WithRole(RoleInfrastructure) }

// PostProcessor marks the module as a post-processor.
func PostProcessor() Option { return WithRole(RolePostProcessor) }

// Disabled clears the enabled flag.
func Disabled() Option {
	return func(d *Descriptor) { d.Enabled = false }
}

// EffectiveRole returns the role, treating the zero value as RoleCustom.
func (d Descriptor) EffectiveRole() Role {
	if d.Role == "" {
		return RoleCustom
	}
	return d.Role
}

// IsInfrastructure reports whether the module has the infrastructure role.
func (d Descriptor) IsInfrastructure() bool { return d.EffectiveRole() == RoleInfrastructure }

// IsPostProcessor reports whether the module has the post-processor role.
func (d Descriptor) IsPostProcessor() bool { return d.EffectiveRole() == RolePostProcessor }

// Validate checks the descriptor in isolation. Dependency existence is
// checked by the resolver, which sees the whole set.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &InvalidDescriptorError{Reason: "name must not be empty"}
	}
	if strings.ContainsFunc(d.Name, unicode.IsSpace) {
		return &InvalidDescriptorError{Name: d.Name, Reason: "name must not contain whitespace"}
	}
	// Component keys take the form "module@name".
	if strings.Contains(d.Name, "@") {
		return &InvalidDescriptorError{Name: d.Name, Reason: `name must not contain "@"`}
	}
	if err := d.EffectiveRole().Validate(); err != nil {
		return fmt.Errorf("module %q: %w", d.Name, err)
	}
	for _, dep := range d.Required {
		if strings.TrimSpace(dep) == "" {
			return &InvalidDescriptorError{Name: d.Name, Reason: "required dependency name must not be empty"}
		}
	}
	for _, dep := range d.Optional {
		if strings.TrimSpace(dep) == "" {
			return &InvalidDescriptorError{Name: d.Name, Reason: "optional dependency name must not be empty"}
		}
	}
	return nil
}

// Normalized returns a copy with the role defaulted and duplicate
// dependency names removed, keeping first occurrences.
func (d Descriptor) Normalized() Descriptor {
	out := d
	out.Role = d.EffectiveRole()
	out.Required = dedupe(d.Required)
	out.Optional = dedupe(d.Optional)
	return out
}

// ValidateSet validates every descriptor and rejects duplicate names.
func ValidateSet(ds []Descriptor) error {
	seen := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.Name]; dup {
			return &DuplicateModuleError{Name: d.Name}
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
