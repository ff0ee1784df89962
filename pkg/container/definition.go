// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"maps"
	"reflect"
	"slices"
)

type (
	// Factory builds a component instance. r resolves the component's own
	// dependencies as seen from the declaring module.
	Factory func(ctx context.Context, r Resolver) (any, error)

	// DestroyFunc releases an instance when its container closes.
	DestroyFunc func(ctx context.Context, instance any) error

	// Definition declares one named component. Exactly one of Value, Factory
	// or Target must be set.
	Definition struct {
		Name string
		// Type is the declared component type used for type-based lookup.
		// It is inferred from Value when empty.
		Type    reflect.Type
		Value   any
		Factory Factory
		// Target makes this a forwarding definition that resolves through
		// another module's container.
		Target Handle

		Aliases  []string
		Metadata map[string]string

		// Primary marks the preferred candidate among several of one type.
		Primary bool
		// Priority breaks ties between candidates; lower wins.
		Priority *int
		// GlobalOrder and Order position the component in ordered
		// collections; nil means unspecified.
		GlobalOrder *int
		Order       *int

		// Destroy replaces the io.Closer fallback used on Close.
		Destroy DestroyFunc
	}

	// ComponentOption adjusts a Definition at registration.
	ComponentOption func(*Definition)
)

// AsPrimary marks the component as primary.
func AsPrimary() ComponentOption {
	return func(d *Definition) { d.Primary = true }
}

// WithPriority sets the tie-break priority.
func WithPriority(p int) ComponentOption {
	return func(d *Definition) { d.Priority = &p }
}

// WithOrder sets the order of the component within its module.
func WithOrder(o int) ComponentOption {
	return func(d *Definition) { d.Order = &o }
}

// WithGlobalOrder sets the order of the component across modules.
func WithGlobalOrder(o int) ComponentOption {
	return func(d *Definition) { d.GlobalOrder = &o }
}

// WithAliases adds alternative lookup names.
func WithAliases(names ...string) ComponentOption {
	return func(d *Definition) { d.Aliases = append(d.Aliases, names...) }
}

// WithMetadata attaches a key/value pair used by exposure filters.
func WithMetadata(key, value string) ComponentOption {
	return func(d *Definition) {
		if d.Metadata == nil {
			d.Metadata = make(map[string]string)
		}
		d.Metadata[key] = value
	}
}

// WithDestroy sets the destroy callback.
func WithDestroy(fn DestroyFunc) ComponentOption {
	return func(d *Definition) { d.Destroy = fn }
}

// IsForwarding reports whether the definition resolves through another
// module's container.
func (d *Definition) IsForwarding() bool { return !d.Target.IsZero() }

// Names returns the definition name followed by its aliases.
func (d *Definition) Names() []string {
	return append([]string{d.Name}, d.Aliases...)
}

func (d *Definition) clone() Definition {
	out := *d
	out.Aliases = slices.Clone(d.Aliases)
	out.Metadata = maps.Clone(d.Metadata)
	return out
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
