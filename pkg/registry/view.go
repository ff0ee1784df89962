// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"reflect"

	"github.com/bootkit/bootkit/internal/metrics"
	"github.com/bootkit/bootkit/pkg/container"
	"github.com/bootkit/bootkit/pkg/exposure"
	"github.com/bootkit/bootkit/pkg/order"
)

type (
	// View resolves lookups on behalf of one module. It sees the module's own
	// definitions and the descriptors published by modules placed before it.
	// The root view sees every descriptor. View implements
	// container.Resolver.
	View struct {
		r      *Registry
		module string
		c      *container.Container
	}

	// Candidate is one component matching a type lookup.
	Candidate struct {
		// Handle points at the container that holds the component.
		Handle container.Handle
		// Name is the local definition name or the exposed preferred name.
		Name string
		Type reflect.Type
		// Local is set for non-forwarding definitions of the querying module.
		Local    bool
		Primary  bool
		Priority *int
		// Descriptor is set for candidates discovered in the root scope.
		Descriptor *exposure.Descriptor
	}
)

// Module returns the module the view resolves for, or "" for the root view.
func (v *View) Module() string { return v.module }

// Container returns the module's container, or nil for the root view.
func (v *View) Container() *container.Container { return v.c }

// ByName resolves name against the module's own definitions first, then
// against visible root-scope descriptors.
func (v *View) ByName(ctx context.Context, name string) (any, error) {
	if v.c != nil && v.c.Has(name) {
		inst, err := v.c.Get(ctx, name)
		v.record("name", err)
		return inst, err
	}
	if d, ok := v.r.Descriptor(name); ok && v.visible(d) {
		inst, err := v.r.Resolve(ctx, d)
		v.record("name", err)
		return inst, err
	}
	v.r.metrics.RecordLookup("name", metrics.OutcomeUnresolved)
	return nil, &container.ComponentNotFoundError{Module: v.module, Name: name}
}

// ByType resolves exactly one component assignable to t. It fails with
// *AmbiguousComponentError when candidates tie on priority or several
// primaries remain, and with *UnresolvedComponentError when nothing matches
// or no selection rule applies.
func (v *View) ByType(ctx context.Context, t reflect.Type) (any, error) {
	inst, _, err := v.lookupType(ctx, t, true)
	return inst, err
}

// OptionalByType is ByType that reports false instead of failing when no
// candidate can be selected. Ambiguity is still an error.
func (v *View) OptionalByType(ctx context.Context, t reflect.Type) (any, bool, error) {
	return v.lookupType(ctx, t, false)
}

// AllByType resolves every visible component assignable to t, sorted by
// global order, then owning module position, then order within the module.
// Ties keep discovery order: local definitions first, then root-scope
// descriptors in publication order.
func (v *View) AllByType(ctx context.Context, t reflect.Type) ([]any, error) {
	cands := v.Candidates(t)
	order.Sort(cands, func(c Candidate) order.Specifier { return v.r.specifier(c.Handle) })

	out := make([]any, 0, len(cands))
	for _, c := range cands {
		inst, err := v.r.Deref(ctx, c.Handle)
		if err != nil {
			v.record("collection", err)
			return nil, err
		}
		out = append(out, inst)
	}
	v.r.metrics.RecordLookup("collection", metrics.OutcomeResolved)
	return out, nil
}

// Select applies the selection rules to the candidates for t without
// resolving an instance.
func (v *View) Select(t reflect.Type, required bool) (Candidate, bool, error) {
	return selectCandidate(v.module, t, v.Candidates(t), required)
}

// Candidates returns the components assignable to t visible to the view, in
// discovery order, each underlying component listed once.
func (v *View) Candidates(t reflect.Type) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})

	if v.c != nil {
		for _, def := range v.c.Definitions() {
			if !assignable(def.Type, t) {
				continue
			}
			h := v.r.canonical(container.Local(v.module, def.Name))
			if _, dup := seen[h.Key()]; dup {
				continue
			}
			seen[h.Key()] = struct{}{}
			out = append(out, Candidate{
				Handle:   h,
				Name:     def.Name,
				Type:     def.Type,
				Local:    !def.IsForwarding(),
				Primary:  def.Primary,
				Priority: def.Priority,
			})
		}
	}

	for _, d := range v.r.Descriptors() {
		if !v.visible(d) || !assignable(d.Type(), t) {
			continue
		}
		h := v.r.canonical(d.Handle())
		if _, dup := seen[h.Key()]; dup {
			continue
		}
		seen[h.Key()] = struct{}{}
		out = append(out, Candidate{
			Handle:     h,
			Name:       d.PreferredName(),
			Type:       d.Type(),
			Primary:    d.Primary(),
			Priority:   d.Priority(),
			Descriptor: d,
		})
	}
	return out
}

func (v *View) lookupType(ctx context.Context, t reflect.Type, required bool) (any, bool, error) {
	c, ok, err := v.Select(t, required)
	if err != nil {
		v.record("type", err)
		return nil, false, err
	}
	if !ok {
		v.r.metrics.RecordLookup("type", metrics.OutcomeAbsent)
		return nil, false, nil
	}
	inst, err := v.r.Deref(ctx, c.Handle)
	v.record("type", err)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// visible reports whether d can be seen from this view. Module views see
// descriptors published by modules placed before them, except their own.
func (v *View) visible(d *exposure.Descriptor) bool {
	if v.module == "" {
		return true
	}
	if d.Owner() == v.module {
		return false
	}
	pub, ok := v.r.order.Index(d.Publisher())
	if !ok {
		return false
	}
	self, _ := v.r.order.Index(v.module)
	return pub < self
}

func (v *View) record(kind string, err error) {
	outcome := metrics.OutcomeResolved
	switch {
	case err == nil:
	case errors.Is(err, ErrAmbiguousComponent):
		outcome = metrics.OutcomeAmbiguous
	case errors.Is(err, ErrUnresolvedComponent):
		outcome = metrics.OutcomeUnresolved
	default:
		outcome = metrics.OutcomeError
	}
	v.r.metrics.RecordLookup(kind, outcome)
}

// selectCandidate applies the selection precedence to cands.
func selectCandidate(module string, t reflect.Type, cands []Candidate, required bool) (Candidate, bool, error) {
	switch len(cands) {
	case 0:
		if required {
			return Candidate{}, false, &UnresolvedComponentError{Module: module, Type: t}
		}
		return Candidate{}, false, nil
	case 1:
		return cands[0], true, nil
	}

	if local, ok := single(cands, func(c Candidate) bool { return c.Local }); ok {
		return local, true, nil
	}

	var primaries []Candidate
	for _, c := range cands {
		if c.Primary {
			primaries = append(primaries, c)
		}
	}
	if len(primaries) == 1 {
		return primaries[0], true, nil
	}

	pool := cands
	if len(primaries) > 1 {
		pool = primaries
	}

	var best []Candidate
	for _, c := range pool {
		if c.Priority == nil {
			continue
		}
		switch {
		case len(best) == 0 || *c.Priority < *best[0].Priority:
			best = []Candidate{c}
		case *c.Priority == *best[0].Priority:
			best = append(best, c)
		}
	}
	switch {
	case len(best) == 1:
		return best[0], true, nil
	case len(best) > 1:
		return Candidate{}, false, &AmbiguousComponentError{Type: t, Candidates: candidateNames(best)}
	case len(primaries) > 1:
		return Candidate{}, false, &AmbiguousComponentError{Type: t, Candidates: candidateNames(primaries)}
	}

	if required {
		return Candidate{}, false, &UnresolvedComponentError{Module: module, Type: t, Candidates: candidateNames(cands)}
	}
	return Candidate{}, false, nil
}

func single(cands []Candidate, pred func(Candidate) bool) (Candidate, bool) {
	var found Candidate
	n := 0
	for _, c := range cands {
		if pred(c) {
			found = c
			n++
		}
	}
	return found, n == 1
}

func candidateNames(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Handle.Key()
	}
	return out
}

func assignable(have, want reflect.Type) bool {
	return have != nil && want != nil && have.AssignableTo(want)
}
