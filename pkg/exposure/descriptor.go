// SPDX-License-Identifier: MPL-2.0

package exposure

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/bootkit/bootkit/pkg/container"
)

// Descriptor is the exposed view of one component. Owner and Original
// always name the container that actually holds the component, even when
// the descriptor was published by a module re-exporting it.
type Descriptor struct {
	owner       string
	original    string
	preferred   string
	via         string
	qualified   bool
	typ         reflect.Type
	primary     bool
	priority    *int
	globalOrder *int
	order       *int
	metadata    map[string]string

	mu      sync.RWMutex
	aliases []string
}

// Owner returns the module whose container holds the component.
func (d *Descriptor) Owner() string { return d.owner }

// Original returns the component name inside the owner's container.
func (d *Descriptor) Original() string { return d.original }

// PreferredName returns the primary exposed name.
func (d *Descriptor) PreferredName() string { return d.preferred }

// Via returns the re-exporting module, or "" when the owner published the
// descriptor itself.
func (d *Descriptor) Via() string { return d.via }

// Publisher returns the module that published the descriptor.
func (d *Descriptor) Publisher() string {
	if d.via != "" {
		return d.via
	}
	return d.owner
}

// Qualified reports whether the preferred name is the fully qualified
// fallback.
func (d *Descriptor) Qualified() bool { return d.qualified }

// Type returns the declared component type.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// Primary reports whether the component is marked primary.
func (d *Descriptor) Primary() bool { return d.primary }

// Priority returns the tie-break priority, or nil.
func (d *Descriptor) Priority() *int { return clonePtr(d.priority) }

// GlobalOrder returns the declared global order, or nil.
func (d *Descriptor) GlobalOrder() *int { return clonePtr(d.globalOrder) }

// Order returns the declared order within the owning module, or nil.
func (d *Descriptor) Order() *int { return clonePtr(d.order) }

// Metadata returns a copy of the definition metadata.
func (d *Descriptor) Metadata() map[string]string { return maps.Clone(d.metadata) }

// Handle returns the remote handle to the owning container.
func (d *Descriptor) Handle() container.Handle { return container.Remote(d.owner, d.original) }

// Key returns the identity of the underlying component.
func (d *Descriptor) Key() string { return d.Handle().Key() }

// Aliases returns the alias names.
func (d *Descriptor) Aliases() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.aliases)
}

// Names returns the preferred name followed by the aliases.
func (d *Descriptor) Names() []string {
	return append([]string{d.preferred}, d.Aliases()...)
}

// AddAlias appends an alias. It reports false when name is empty or already
// one of the descriptor's names; scope-wide uniqueness is the caller's
// concern.
func (d *Descriptor) AddAlias(name string) bool {
	if name == "" || name == d.preferred {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if slices.Contains(d.aliases, name) {
		return false
	}
	d.aliases = append(d.aliases, name)
	return true
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	if d.via != "" {
		return fmt.Sprintf("%s (%s via %s)", d.preferred, d.Key(), d.via)
	}
	return fmt.Sprintf("%s (%s)", d.preferred, d.Key())
}

// QualifiedName returns the collision-free name of a component:
// "<scopeID>.<owner>@<original>".
func QualifiedName(scopeID, owner, original string) string {
	return scopeID + "." + owner + "@" + original
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
