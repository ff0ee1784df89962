// SPDX-License-Identifier: MPL-2.0

package bootorder

import (
	"slices"
	"strings"

	"github.com/bootkit/bootkit/pkg/module"
)

// Order is an immutable bootstrap sequence. Safe for concurrent use.
type Order struct {
	modules  []module.Descriptor
	index    map[string]int
	requires map[string][]string
	graph    Graph
}

func newOrder(modules []module.Descriptor, requires map[string][]string, graph Graph) *Order {
	index := make(map[string]int, len(modules))
	for i, m := range modules {
		index[m.Name] = i
	}
	return &Order{modules: modules, index: index, requires: requires, graph: graph}
}

// Len returns the number of modules in the order.
func (o *Order) Len() int { return len(o.modules) }

// Modules returns a copy of the ordered descriptors.
func (o *Order) Modules() []module.Descriptor {
	out := make([]module.Descriptor, len(o.modules))
	for i, m := range o.modules {
		out[i] = m
		out[i].Required = slices.Clone(m.Required)
		out[i].Optional = slices.Clone(m.Optional)
	}
	return out
}

// Names returns the module names in order.
func (o *Order) Names() []string {
	out := make([]string, len(o.modules))
	for i, m := range o.modules {
		out[i] = m.Name
	}
	return out
}

// Module returns the descriptor at position i.
func (o *Order) Module(i int) module.Descriptor { return o.modules[i] }

// Index returns the position of the named module.
func (o *Order) Index(name string) (int, bool) {
	i, ok := o.index[name]
	return i, ok
}

// Contains reports whether the named module is part of the order.
func (o *Order) Contains(name string) bool {
	_, ok := o.index[name]
	return ok
}

// Requires returns the effective required dependencies of the named module,
// implicit edges included, in the order they were considered.
func (o *Order) Requires(name string) []string {
	return slices.Clone(o.requires[name])
}

// Graph returns the effective dependency graph for export.
func (o *Order) Graph() Graph { return o.graph }

// String renders the order as "a -> b -> c".
func (o *Order) String() string { return strings.Join(o.Names(), " -> ") }
