// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bootkit/bootkit/pkg/manifest"
)

// FromManifest builds an Application from the modules declared in m, taking
// each module's exposure policy from its manifest entry. setups supplies the
// setup function per module name; a module without one bootstraps an empty
// container. The manifest's scope ID is applied before opts.
func FromManifest(m *manifest.Manifest, setups map[string]SetupFunc, opts ...Option) (*Application, error) {
	ds, err := m.Descriptors()
	if err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(setups)) {
		if _, ok := m.Entry(name); !ok {
			return nil, fmt.Errorf("setup given for undeclared module %q", name)
		}
	}

	modules := make([]Module, len(ds))
	for i, d := range ds {
		modules[i] = Module{
			Descriptor: d,
			Setup:      setups[d.Name],
			Expose:     m.Modules[i].Filter(),
		}
	}
	if m.ScopeID != "" {
		opts = append([]Option{WithScopeID(m.ScopeID)}, opts...)
	}
	return New(modules, opts...)
}
