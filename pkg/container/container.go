// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

const (
	// StateOpen accepts new definitions.
	StateOpen State = iota
	// StateFinalized serves lookups but accepts no new definitions.
	StateFinalized
	// StateClosed has destroyed its instances.
	StateClosed
)

type (
	// State is the lifecycle state of a Container.
	State int32

	// Resolver looks up components on behalf of a factory.
	Resolver interface {
		ByName(ctx context.Context, name string) (any, error)
		ByType(ctx context.Context, t reflect.Type) (any, error)
	}

	// Forwarder resolves remote handles into their owning containers.
	Forwarder interface {
		Deref(ctx context.Context, h Handle) (any, error)
	}

	// Option configures a Container.
	Option func(*Container)

	// Container holds the components declared by one module.
	Container struct {
		module    string
		resolver  Resolver
		forwarder Forwarder
		logger    *log.Logger

		state atomic.Int32

		mu        sync.RWMutex
		defs      []*Definition
		names     map[string]*Definition
		instances map[string]any
		created   []string

		sf singleflight.Group
	}

	localResolver struct {
		c *Container
	}

	resolveStackKey struct{}
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFinalized:
		return "finalized"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// WithResolver sets the resolver passed to factories. Without it factories
// only see the container's own components.
func WithResolver(r Resolver) Option {
	return func(c *Container) { c.resolver = r }
}

// WithForwarder sets the forwarder used for forwarding definitions.
func WithForwarder(f Forwarder) Option {
	return func(c *Container) { c.forwarder = f }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an open container for module.
func New(module string, opts ...Option) *Container {
	c := &Container{
		module:    module,
		logger:    log.New(io.Discard),
		names:     make(map[string]*Definition),
		instances: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = localResolver{c: c}
	}
	return c
}

// Module returns the name of the owning module.
func (c *Container) Module() string { return c.module }

// State returns the current lifecycle state.
func (c *Container) State() State { return State(c.state.Load()) }

// Register adds a definition. It fails once the container is finalized.
func (c *Container) Register(def Definition, opts ...ComponentOption) error {
	for _, opt := range opts {
		opt(&def)
	}
	if err := c.validate(&def); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateFinalized:
		return fmt.Errorf("register %q in module %q: %w", def.Name, c.module, ErrFinalized)
	case StateClosed:
		return fmt.Errorf("register %q in module %q: %w", def.Name, c.module, ErrClosed)
	}

	for _, name := range def.Names() {
		if _, taken := c.names[name]; taken {
			return &DuplicateComponentError{Module: c.module, Name: name}
		}
	}

	stored := def.clone()
	c.defs = append(c.defs, &stored)
	for _, name := range stored.Names() {
		c.names[name] = &stored
	}
	if stored.Factory == nil && !stored.IsForwarding() && stored.Destroy != nil {
		c.instances[stored.Name] = stored.Value
		c.created = append(c.created, stored.Name)
	}
	return nil
}

// Forward registers name as a forwarding definition resolving to target.
func (c *Container) Forward(name string, target Handle, t reflect.Type, opts ...ComponentOption) error {
	return c.Register(Definition{Name: name, Type: t, Target: target}, opts...)
}

// Provide registers a lazily built component of type T.
func Provide[T any](c *Container, name string, factory func(ctx context.Context, r Resolver) (T, error), opts ...ComponentOption) error {
	if factory == nil {
		return &InvalidDefinitionError{Module: c.module, Name: name, Reason: "factory is nil"}
	}
	return c.Register(Definition{
		Name: name,
		Type: TypeOf[T](),
		Factory: func(ctx context.Context, r Resolver) (any, error) {
			return factory(ctx, r)
		},
	}, opts...)
}

// ProvideValue registers an existing value under type T.
func ProvideValue[T any](c *Container, name string, value T, opts ...ComponentOption) error {
	return c.Register(Definition{Name: name, Type: TypeOf[T](), Value: value}, opts...)
}

// Finalize stops the container from accepting definitions.
func (c *Container) Finalize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CompareAndSwap(int32(StateOpen), int32(StateFinalized))
}

// Has reports whether name or an alias is declared.
func (c *Container) Has(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// Definition returns a copy of the definition carrying name or alias.
func (c *Container) Definition(name string) (Definition, bool) {
	def, ok := c.lookup(name)
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// Definitions returns copies of all definitions in declaration order.
func (c *Container) Definitions() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.clone()
	}
	return out
}

// Names returns the definition names in declaration order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Name
	}
	return out
}

// ForwardTargets returns the remote handles of all forwarding definitions.
func (c *Container) ForwardTargets() []Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Handle
	for _, d := range c.defs {
		if d.IsForwarding() {
			out = append(out, d.Target)
		}
	}
	return out
}

// Instantiated returns an already-built instance without building it.
func (c *Container) Instantiated(name string) (any, bool) {
	def, ok := c.lookup(name)
	if !ok {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.instances[def.Name]
	return v, ok
}

// Get returns the component carrying name or alias, building it on first
// use. Forwarding definitions are resolved through the Forwarder.
func (c *Container) Get(ctx context.Context, name string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.State() == StateClosed {
		return nil, fmt.Errorf("get %q from module %q: %w", name, c.module, ErrClosed)
	}
	def, ok := c.lookup(name)
	if !ok {
		return nil, &ComponentNotFoundError{Module: c.module, Name: name}
	}

	if def.IsForwarding() {
		if c.forwarder == nil {
			return nil, &NoForwarderError{Module: c.module, Name: def.Name}
		}
		return c.forwarder.Deref(ctx, def.Target)
	}
	if def.Factory == nil {
		return def.Value, nil
	}

	key := def.Name
	withStack, err := pushResolveStack(ctx, Local(c.module, key).Key())
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.instances[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		c.mu.RLock()
		cachedAgain, ok := c.instances[key]
		c.mu.RUnlock()
		if ok {
			return cachedAgain, nil
		}

		start := time.Now()
		instance, err := def.Factory(withStack, c.resolver)
		if err != nil {
			return nil, fmt.Errorf("build component %s: %w", Local(c.module, key), err)
		}
		if err := checkType(def, instance); err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.State() == StateClosed {
			c.mu.Unlock()
			return nil, fmt.Errorf("build component %s: %w", Local(c.module, key), ErrClosed)
		}
		c.instances[key] = instance
		c.created = append(c.created, key)
		c.mu.Unlock()

		c.logger.Debug("component created", "module", c.module, "component", key, "duration", time.Since(start))
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetAs is a typed wrapper around Get.
func GetAs[T any](ctx context.Context, c *Container, name string) (T, error) {
	var zero T
	v, err := c.Get(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Component: Local(c.module, name).Key(),
			Expected:  TypeOf[T]().String(),
			Actual:    fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

// Close destroys built instances in reverse creation order and marks the
// container closed. Forwarded components are not owned and never destroyed.
// Closing twice is a no-op.
func (c *Container) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.State() == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state.Store(int32(StateClosed))
	created := c.created
	instances := c.instances
	c.created = nil
	c.instances = make(map[string]any)
	c.mu.Unlock()

	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		key := created[i]
		instance := instances[key]
		def, _ := c.lookup(key)
		if def != nil && def.Destroy != nil {
			if err := def.Destroy(ctx, instance); err != nil {
				errs = append(errs, fmt.Errorf("destroy component %s: %w", Local(c.module, key), err))
			}
			continue
		}
		if closer, ok := instance.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close component %s: %w", Local(c.module, key), err))
			}
		}
	}

	c.logger.Debug("container closed", "module", c.module, "destroyed", len(created))
	return errors.Join(errs...)
}

func (c *Container) lookup(name string) (*Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.names[name]
	return d, ok
}

func (c *Container) validate(def *Definition) error {
	invalid := func(reason string) error {
		return &InvalidDefinitionError{Module: c.module, Name: def.Name, Reason: reason}
	}
	if def.Name == "" {
		return invalid("name must not be empty")
	}
	set := 0
	if def.Factory != nil {
		set++
	}
	if def.IsForwarding() {
		set++
		if !def.Target.IsRemote() {
			return invalid("forwarding target must be a remote handle")
		}
	}
	if def.Value != nil {
		set++
	}
	if set > 1 {
		return invalid("only one of value, factory or target may be set")
	}
	if def.Type == nil {
		if def.Value == nil {
			return invalid("type is required for factory and forwarding definitions")
		}
		def.Type = reflect.TypeOf(def.Value)
	}
	if set == 0 && def.Type.Kind() != reflect.Interface && def.Type.Kind() != reflect.Pointer {
		return invalid("one of value, factory or target must be set")
	}
	for _, alias := range def.Aliases {
		if alias == "" || alias == def.Name {
			return invalid("aliases must be non-empty and differ from the name")
		}
	}
	return checkType(def, def.Value)
}

func checkType(def *Definition, instance any) error {
	if instance == nil || def.Type == nil {
		return nil
	}
	actual := reflect.TypeOf(instance)
	if actual.AssignableTo(def.Type) {
		return nil
	}
	return &TypeMismatchError{Component: def.Name, Expected: def.Type.String(), Actual: actual.String()}
}

// ByName implements Resolver over the container's own components.
func (r localResolver) ByName(ctx context.Context, name string) (any, error) {
	return r.c.Get(ctx, name)
}

// ByType implements Resolver over the container's own components. Exactly
// one assignable definition must exist.
func (r localResolver) ByType(ctx context.Context, t reflect.Type) (any, error) {
	var match string
	for _, d := range r.c.Definitions() {
		if d.Type == nil || !d.Type.AssignableTo(t) {
			continue
		}
		if match != "" {
			return nil, fmt.Errorf("more than one component of type %s in module %q", t, r.c.module)
		}
		match = d.Name
	}
	if match == "" {
		return nil, &ComponentNotFoundError{Module: r.c.module, Name: t.String()}
	}
	return r.c.Get(ctx, match)
}

func pushResolveStack(ctx context.Context, current string) (context.Context, error) {
	stack, _ := ctx.Value(resolveStackKey{}).([]string)
	for i := range stack {
		if stack[i] == current {
			cycle := append([]string(nil), stack[i:]...)
			cycle = append(cycle, current)
			return nil, &CircularReferenceError{Path: cycle}
		}
	}
	next := make([]string, 0, len(stack)+1)
	next = append(next, stack...)
	next = append(next, current)
	return context.WithValue(ctx, resolveStackKey{}, next), nil
}
