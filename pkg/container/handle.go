// SPDX-License-Identifier: MPL-2.0

package container

import "fmt"

// Handle identifies a component either inside the container that declares
// it (local) or inside another module's container (remote). Resolving a
// remote handle always reaches the owning module's container.
type Handle struct {
	remote bool
	module string
	name   string
}

// Local returns a handle to component name declared by module.
func Local(module, name string) Handle {
	return Handle{module: module, name: name}
}

// Remote returns a handle to component name owned by another module.
func Remote(owner, name string) Handle {
	return Handle{remote: true, module: owner, name: name}
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.module == "" && h.name == "" }

// IsRemote reports whether h points into another module's container.
func (h Handle) IsRemote() bool { return h.remote }

// Module returns the module that owns the component.
func (h Handle) Module() string { return h.module }

// Name returns the component name inside its owning container.
func (h Handle) Name() string { return h.name }

// Key returns the identity of the referenced component, independent of
// whether h is local or remote.
func (h Handle) Key() string { return h.module + "@" + h.name }

// String implements fmt.Stringer.
func (h Handle) String() string {
	if h.remote {
		return fmt.Sprintf("remote(%s)", h.Key())
	}
	return h.Key()
}
