// SPDX-License-Identifier: MPL-2.0

package exposure

import (
	"maps"
	"reflect"
	"slices"
)

type (
	// Candidate is the read-only view of a definition offered to filters
	// and transformers.
	Candidate struct {
		Module   string
		Name     string
		Type     reflect.Type
		Aliases  []string
		Metadata map[string]string
		Primary  bool
	}

	// Filter selects the definitions a module exposes.
	Filter interface {
		Matches(c Candidate) bool
	}

	// FilterFunc adapts a function to Filter.
	FilterFunc func(c Candidate) bool
)

// Matches implements Filter.
func (f FilterFunc) Matches(c Candidate) bool { return f(c) }

// None exposes nothing.
func None() Filter {
	return FilterFunc(func(Candidate) bool { return false })
}

// All exposes every definition.
func All() Filter {
	return FilterFunc(func(Candidate) bool { return true })
}

// Names exposes definitions whose name or any alias is listed.
func Names(names ...string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return FilterFunc(func(c Candidate) bool {
		if _, ok := set[c.Name]; ok {
			return true
		}
		return slices.ContainsFunc(c.Aliases, func(a string) bool {
			_, ok := set[a]
			return ok
		})
	})
}

// Types exposes definitions whose declared type is assignable to any of ts.
func Types(ts ...reflect.Type) Filter {
	return FilterFunc(func(c Candidate) bool {
		if c.Type == nil {
			return false
		}
		return slices.ContainsFunc(ts, func(t reflect.Type) bool { return c.Type.AssignableTo(t) })
	})
}

// TypeOf exposes definitions assignable to T.
func TypeOf[T any]() Filter {
	return Types(reflect.TypeOf((*T)(nil)).Elem())
}

// Metadata exposes definitions carrying key=value.
func Metadata(key, value string) Filter {
	return FilterFunc(func(c Candidate) bool {
		v, ok := c.Metadata[key]
		return ok && v == value
	})
}

// Primaries exposes definitions marked primary.
func Primaries() Filter {
	return FilterFunc(func(c Candidate) bool { return c.Primary })
}

// AnyOf matches when at least one filter matches.
func AnyOf(fs ...Filter) Filter {
	return FilterFunc(func(c Candidate) bool {
		for _, f := range fs {
			if f != nil && f.Matches(c) {
				return true
			}
		}
		return false
	})
}

// AllOf matches when every filter matches. An empty AllOf matches nothing.
func AllOf(fs ...Filter) Filter {
	return FilterFunc(func(c Candidate) bool {
		if len(fs) == 0 {
			return false
		}
		for _, f := range fs {
			if f == nil || !f.Matches(c) {
				return false
			}
		}
		return true
	})
}

// Not inverts f.
func Not(f Filter) Filter {
	return FilterFunc(func(c Candidate) bool { return f == nil || !f.Matches(c) })
}

func (c Candidate) clone() Candidate {
	c.Aliases = slices.Clone(c.Aliases)
	c.Metadata = maps.Clone(c.Metadata)
	return c
}
