// SPDX-License-Identifier: MPL-2.0

package exposure

import (
	"slices"

	"github.com/bootkit/bootkit/pkg/container"
)

type (
	// Scope reports which names are already taken in the receiving scope.
	Scope interface {
		Taken(name string) bool
	}

	// Canonicalizer is implemented by scopes that can follow forwarding
	// definitions across containers to the handle of the container that
	// holds the component.
	Canonicalizer interface {
		Canonical(h container.Handle) container.Handle
	}

	// Naming is the proposed external naming of a component.
	Naming struct {
		Preferred string
		Aliases   []string
	}

	// Transformer adjusts the proposed naming of a selected definition
	// before collisions are resolved.
	Transformer func(c Candidate, n Naming) Naming
)

// Prefix returns a Transformer that prepends prefix to the preferred name
// and every alias.
func Prefix(prefix string) Transformer {
	return func(_ Candidate, n Naming) Naming {
		out := Naming{Preferred: prefix + n.Preferred}
		for _, a := range n.Aliases {
			out.Aliases = append(out.Aliases, prefix+a)
		}
		return out
	}
}

// Compute returns descriptors for the definitions of c selected by f, in
// declaration order. A nil filter selects nothing.
//
// The preferred name is the definition name unless tr changes it. When the
// preferred name is taken in scope, or by an earlier descriptor of the same
// batch, the descriptor uses QualifiedName instead and the short name is not
// kept. Aliases that collide are dropped.
//
// A forwarding definition is attributed to the module its target lives in.
// When scope implements Canonicalizer, chains of forwards are followed to
// the original owner.
func Compute(c *container.Container, f Filter, scope Scope, scopeID string, tr Transformer) []*Descriptor {
	if f == nil {
		return nil
	}

	batch := make(map[string]struct{})
	taken := func(name string) bool {
		if _, ok := batch[name]; ok {
			return true
		}
		return scope != nil && scope.Taken(name)
	}

	var out []*Descriptor
	for _, def := range c.Definitions() {
		cand := Candidate{
			Module:   c.Module(),
			Name:     def.Name,
			Type:     def.Type,
			Aliases:  def.Aliases,
			Metadata: def.Metadata,
			Primary:  def.Primary,
		}
		if !f.Matches(cand.clone()) {
			continue
		}

		d := &Descriptor{
			owner:       c.Module(),
			original:    def.Name,
			typ:         def.Type,
			primary:     def.Primary,
			priority:    clonePtr(def.Priority),
			globalOrder: clonePtr(def.GlobalOrder),
			order:       clonePtr(def.Order),
			metadata:    cand.Metadata,
		}
		if def.IsForwarding() {
			target := def.Target
			if cz, ok := scope.(Canonicalizer); ok {
				target = cz.Canonical(target)
			}
			d.owner = target.Module()
			d.original = target.Name()
			d.via = c.Module()
		}

		naming := Naming{Preferred: def.Name, Aliases: slices.Clone(def.Aliases)}
		if tr != nil {
			naming = tr(cand.clone(), naming)
		}
		if naming.Preferred == "" {
			naming.Preferred = def.Name
		}

		d.preferred = naming.Preferred
		if taken(d.preferred) {
			d.preferred = QualifiedName(scopeID, d.owner, d.original)
			d.qualified = true
		}
		batch[d.preferred] = struct{}{}

		for _, alias := range naming.Aliases {
			if taken(alias) {
				continue
			}
			if d.AddAlias(alias) {
				batch[alias] = struct{}{}
			}
		}
		out = append(out, d)
	}
	return out
}
