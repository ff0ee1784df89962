// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bootkit/bootkit/internal/memo"
	"github.com/bootkit/bootkit/internal/metrics"
	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/container"
	"github.com/bootkit/bootkit/pkg/exposure"
	"github.com/bootkit/bootkit/pkg/order"
)

// maxForwardDepth bounds forwarding chains followed when canonicalizing.
const maxForwardDepth = 32

type (
	// Registry is the central registry of one bootstrap. Safe for concurrent
	// use.
	Registry struct {
		scopeID string
		order   *bootorder.Order
		logger  *log.Logger
		metrics *metrics.Collector

		mu         sync.RWMutex
		containers map[string]*container.Container
		pending    map[string]*container.Container
		root       rootScope

		// exposed caches positive name lookups in the root scope.
		exposed memo.Cache[string, *exposure.Descriptor]
		specs   order.Cache
	}

	// Option configures a Registry.
	Option func(*Registry)

	rootScope struct {
		names map[string]*exposure.Descriptor
		list  []*exposure.Descriptor
	}

	// publishScope is the root scope seen by Publish, which holds the
	// registry lock while descriptors are computed.
	publishScope struct {
		r *Registry
	}
)

// WithScopeID sets the scope identifier used in qualified names.
func WithScopeID(id string) Option {
	return func(r *Registry) {
		if id != "" {
			r.scopeID = id
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates a registry for the modules of o. Without WithScopeID a random
// scope identifier is generated.
func New(o *bootorder.Order, opts ...Option) *Registry {
	r := &Registry{
		scopeID:    uuid.NewString(),
		order:      o,
		logger:     log.New(io.Discard),
		containers: make(map[string]*container.Container),
		pending:    make(map[string]*container.Container),
		root:       rootScope{names: make(map[string]*exposure.Descriptor)},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ScopeID returns the scope identifier.
func (r *Registry) ScopeID() string { return r.scopeID }

// Order returns the bootstrap order the registry serves.
func (r *Registry) Order() *bootorder.Order { return r.order }

// Open creates the container for module wired to resolve through this
// registry, together with the module's view. The container is pending until
// Register is called.
func (r *Registry) Open(module string) (*container.Container, *View, error) {
	if !r.order.Contains(module) {
		return nil, nil, &ModuleNotRegisteredError{Module: module}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[module]; ok {
		return nil, nil, &DuplicateContainerError{Module: module}
	}
	if _, ok := r.pending[module]; ok {
		return nil, nil, &DuplicateContainerError{Module: module}
	}

	v := &View{r: r, module: module}
	c := container.New(module,
		container.WithResolver(v),
		container.WithForwarder(r),
		container.WithLogger(r.logger))
	v.c = c
	r.pending[module] = c
	return c, v, nil
}

// Discard drops a pending container that will never be registered.
func (r *Registry) Discard(module string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, module)
}

// Register finalizes c and makes it the live container of its module.
func (r *Registry) Register(c *container.Container) error {
	module := c.Module()
	if !r.order.Contains(module) {
		return &ModuleNotRegisteredError{Module: module}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[module]; ok {
		return &DuplicateContainerError{Module: module}
	}
	if p, ok := r.pending[module]; ok && p != c {
		return &DuplicateContainerError{Module: module}
	}

	c.Finalize()
	r.containers[module] = c
	delete(r.pending, module)
	r.metrics.SetActiveModules(len(r.containers))
	r.logger.Debug("container registered", "module", module, "components", len(c.Names()))
	return nil
}

// Container returns the live container of module.
func (r *Registry) Container(module string) (*container.Container, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.containers[module]
	return c, ok
}

// Modules returns the modules with live containers in bootstrap order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order.Names() {
		if _, ok := r.containers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Publish exposes the components of module selected by f into the root
// scope and returns the descriptors that were added. A descriptor whose
// component is already exposed contributes its free names as aliases of the
// existing descriptor instead.
func (r *Registry) Publish(module string, f exposure.Filter, tr exposure.Transformer) ([]*exposure.Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.containers[module]
	if !ok {
		return nil, &ModuleNotRegisteredError{Module: module}
	}

	computed := exposure.Compute(c, f, publishScope{r: r}, r.scopeID, tr)
	for _, d := range computed {
		if existing, ok := r.root.names[d.PreferredName()]; ok && existing.Key() != d.Key() {
			return nil, &DuplicateExposureError{Name: d.PreferredName(), Existing: existing.Key(), Incoming: d.Key()}
		}
	}

	var published []*exposure.Descriptor
	for _, d := range computed {
		if existing, ok := r.root.names[d.PreferredName()]; ok {
			for _, alias := range d.Aliases() {
				if _, taken := r.root.names[alias]; !taken && existing.AddAlias(alias) {
					r.root.names[alias] = existing
				}
			}
			continue
		}
		r.root.add(d)
		published = append(published, d)
		r.logger.Debug("component exposed", "module", module, "name", d.PreferredName(), "component", d.Key())
	}
	r.metrics.SetExposed(len(r.root.list))
	return published, nil
}

// Descriptors returns the root-scope descriptors in publication order.
func (r *Registry) Descriptors() []*exposure.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.root.list)
}

// Descriptor returns the root-scope descriptor exposed under name.
func (r *Registry) Descriptor(name string) (*exposure.Descriptor, bool) {
	return r.exposed.Lookup(name, func() (*exposure.Descriptor, bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		d, ok := r.root.names[name]
		return d, ok
	})
}

// IsExposed reports whether name is taken in the root scope.
func (r *Registry) IsExposed(name string) bool {
	_, ok := r.Descriptor(name)
	return ok
}

// Resolve returns the instance a descriptor refers to, built by and cached
// in the owning module's container.
func (r *Registry) Resolve(ctx context.Context, d *exposure.Descriptor) (any, error) {
	return r.Deref(ctx, d.Handle())
}

// Deref resolves a handle in the container of the module it names, following
// forwarding definitions. It implements container.Forwarder.
func (r *Registry) Deref(ctx context.Context, h container.Handle) (any, error) {
	c, ok := r.containerFor(h.Module())
	if !ok {
		return nil, &ModuleNotRegisteredError{Module: h.Module()}
	}
	return c.Get(ctx, h.Name())
}

// View returns the lookup view of a module with a live container.
func (r *Registry) View(module string) (*View, error) {
	c, ok := r.Container(module)
	if !ok {
		return nil, &ModuleNotRegisteredError{Module: module}
	}
	return &View{r: r, module: module, c: c}, nil
}

// Root returns a view that sees every root-scope descriptor and owns no
// container.
func (r *Registry) Root() *View {
	return &View{r: r}
}

// Unregister removes the live container of module together with every
// descriptor it owns or re-exported. It fails with *StillReferencedError
// while another live container forwards into module, or while a module
// placed later is live and module has exposed components it could have
// resolved. Unregister does not close the container.
func (r *Registry) Unregister(module string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.containers[module]
	if !ok {
		return &ModuleNotRegisteredError{Module: module}
	}

	exposes := false
	for _, d := range r.root.list {
		if d.Owner() == module {
			exposes = true
			break
		}
	}

	idx, _ := r.order.Index(module)
	for _, name := range r.order.Names() {
		other, live := r.containers[name]
		if !live || other == c {
			continue
		}
		for _, h := range other.ForwardTargets() {
			if h.Module() == module {
				return &StillReferencedError{Module: module, By: name}
			}
		}
		if otherIdx, _ := r.order.Index(name); exposes && otherIdx > idx {
			return &StillReferencedError{Module: module, By: name}
		}
	}

	removed := r.root.remove(func(d *exposure.Descriptor) bool {
		return d.Owner() == module || d.Via() == module
	})
	r.exposed.DeleteFunc(func(_ string, d *exposure.Descriptor) bool {
		return d.Owner() == module || d.Via() == module
	})
	r.specs.InvalidateModule(module)
	delete(r.containers, module)

	r.metrics.SetActiveModules(len(r.containers))
	r.metrics.SetExposed(len(r.root.list))
	r.logger.Debug("container unregistered", "module", module, "descriptors", removed)
	return nil
}

func (r *Registry) containerFor(module string) (*container.Container, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.containers[module]; ok {
		return c, true
	}
	c, ok := r.pending[module]
	return c, ok
}

// canonical follows forwarding definitions to the handle of the container
// that actually holds the component.
func (r *Registry) canonical(h container.Handle) container.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canonicalLocked(h)
}

// canonicalLocked is canonical for callers holding the registry lock.
func (r *Registry) canonicalLocked(h container.Handle) container.Handle {
	for range maxForwardDepth {
		c, ok := r.containers[h.Module()]
		if !ok {
			if c, ok = r.pending[h.Module()]; !ok {
				return h
			}
		}
		def, ok := c.Definition(h.Name())
		if !ok {
			return h
		}
		if !def.IsForwarding() {
			return container.Remote(h.Module(), def.Name)
		}
		h = def.Target
	}
	return h
}

// specifier returns the cached order specifier of the component behind h.
func (r *Registry) specifier(h container.Handle) order.Specifier {
	return r.specs.Get(h.Key(), func() order.Specifier {
		idx, _ := r.order.Index(h.Module())
		var global, inModule *int
		if c, ok := r.containerFor(h.Module()); ok {
			if def, ok := c.Definition(h.Name()); ok {
				global, inModule = def.GlobalOrder, def.Order
			}
		}
		return order.New(global, idx, inModule)
	})
}

// Taken implements exposure.Scope.
func (s publishScope) Taken(name string) bool { return s.r.root.Taken(name) }

// Canonical implements exposure.Canonicalizer.
func (s publishScope) Canonical(h container.Handle) container.Handle {
	return s.r.canonicalLocked(h)
}

// Taken implements exposure.Scope. Callers hold the registry lock.
func (s *rootScope) Taken(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s *rootScope) add(d *exposure.Descriptor) {
	s.list = append(s.list, d)
	for _, name := range d.Names() {
		s.names[name] = d
	}
}

func (s *rootScope) remove(drop func(*exposure.Descriptor) bool) int {
	kept := s.list[:0]
	removed := 0
	for _, d := range s.list {
		if drop(d) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	clear(s.list[len(kept):])
	s.list = kept
	for name, d := range s.names {
		if drop(d) {
			delete(s.names, name)
		}
	}
	return removed
}
