// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bootkit/bootkit/internal/lifecycle"
	"github.com/bootkit/bootkit/internal/metrics"
	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/container"
	"github.com/bootkit/bootkit/pkg/exposure"
	"github.com/bootkit/bootkit/pkg/lock"
	"github.com/bootkit/bootkit/pkg/module"
	"github.com/bootkit/bootkit/pkg/registry"
)

const errBuffer = 8

type (
	// SetupFunc populates a module's container. The view resolves
	// components from the module itself and from earlier modules.
	SetupFunc func(ctx context.Context, c *container.Container, v *registry.View) error

	// Module pairs a module descriptor with its setup and exposure policy.
	Module struct {
		Descriptor module.Descriptor
		Setup      SetupFunc
		// Expose selects the components published to later modules. Nil
		// publishes nothing.
		Expose exposure.Filter
		// Transform renames published components. Nil keeps their names.
		Transform exposure.Transformer
	}

	// Application bootstraps a fixed set of modules once.
	Application struct {
		modules   []Module
		byName    map[string]Module
		installer Installer
		locks     lock.Provider
		logger    *log.Logger
		metrics   *metrics.Collector
		scopeID   string
		prune     bool
		life      *lifecycle.Machine

		mu      sync.Mutex
		order   *bootorder.Order
		reg     *registry.Registry
		started []string
		pending *container.Container
	}

	// Option configures an Application.
	Option func(*Application)
)

// WithInstaller sets the installer that receives phase callbacks.
func WithInstaller(i Installer) Option {
	return func(a *Application) {
		a.installer = i
	}
}

// WithLockProvider sets the lock that guards installer callbacks.
func WithLockProvider(p lock.Provider) Option {
	return func(a *Application) {
		a.locks = p
	}
}

// WithLogger sets the logger used by the application and its registry.
func WithLogger(l *log.Logger) Option {
	return func(a *Application) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(a *Application) {
		a.metrics = m
	}
}

// WithScopeID sets the identifier used to qualify colliding exposed names.
func WithScopeID(id string) Option {
	return func(a *Application) {
		a.scopeID = id
	}
}

// WithPruneDisabled drops disabled modules from the resolved order.
func WithPruneDisabled(prune bool) Option {
	return func(a *Application) {
		a.prune = prune
	}
}

// New creates an Application for modules, in registration order. Module
// names must be unique.
func New(modules []Module, opts ...Option) (*Application, error) {
	a := &Application{
		modules: slices.Clone(modules),
		byName:  make(map[string]Module, len(modules)),
		logger:  log.New(io.Discard),
		life:    lifecycle.New(errBuffer),
	}
	for _, m := range modules {
		if _, dup := a.byName[m.Descriptor.Name]; dup {
			return nil, &module.DuplicateModuleError{Name: m.Descriptor.Name}
		}
		a.byName[m.Descriptor.Name] = m
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Descriptors returns the module descriptors in registration order.
func (a *Application) Descriptors() []module.Descriptor {
	out := make([]module.Descriptor, len(a.modules))
	for i, m := range a.modules {
		out[i] = m.Descriptor
	}
	return out
}

// State returns the lifecycle state.
func (a *Application) State() lifecycle.State { return a.life.State() }

// Err delivers errors raised outside Start's return value, such as a failure
// to release the bootstrap lock after a successful bootstrap.
func (a *Application) Err() <-chan error { return a.life.Err() }

// Done is closed once the application is stopped or has failed.
func (a *Application) Done() <-chan struct{} { return a.life.Done() }

// WaitReady blocks until bootstrap completes or fails.
func (a *Application) WaitReady(ctx context.Context) error { return a.life.WaitReady(ctx) }

// Order returns the resolved bootstrap order, or nil before Start.
func (a *Application) Order() *bootorder.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.order
}

// Registry returns the application's registry, or nil before Start.
func (a *Application) Registry() *registry.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg
}

// Started returns the modules bootstrapped so far, in bootstrap order.
func (a *Application) Started() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.started)
}

// Start bootstraps every enabled module. The order is resolved before any
// module is touched, so an invalid dependency set fails without side
// effects. On failure every module bootstrapped so far is torn down in
// reverse order and the returned error is a *BootstrapError. Start can be
// called once.
func (a *Application) Start(ctx context.Context) (err error) {
	if err := a.life.Begin(ctx); err != nil {
		return err
	}
	begin := time.Now()

	order, err := bootorder.NewResolver(bootorder.WithLogger(a.logger)).Resolve(a.Descriptors(), a.prune)
	if err != nil {
		return a.abort(ctx, &BootstrapError{Phase: PhaseResolve, Err: err})
	}
	reg := registry.New(order,
		registry.WithScopeID(a.scopeID),
		registry.WithLogger(a.logger),
		registry.WithMetrics(a.metrics))

	a.mu.Lock()
	a.order, a.reg = order, reg
	a.mu.Unlock()

	guard := &phaseGuard{installer: a.installer, provider: a.locks, logger: a.logger, metrics: a.metrics}
	defer func() {
		rerr := guard.release(context.WithoutCancel(ctx))
		if rerr == nil {
			return
		}
		a.logger.Error("bootstrap lock", "error", rerr)
		if err == nil {
			a.life.Report(rerr)
		}
	}()

	if err := guard.beforeContext(ctx, order); err != nil {
		return a.abort(ctx, &BootstrapError{Phase: PhaseBeforeContext, Err: err})
	}
	for _, d := range order.Modules() {
		if !d.Enabled {
			a.logger.Debug("skipping disabled module", "module", d.Name)
			continue
		}
		if err := a.bootstrapModule(ctx, guard, d); err != nil {
			return a.abort(ctx, err)
		}
	}
	if err := guard.afterContext(ctx, order); err != nil {
		return a.abort(ctx, &BootstrapError{Phase: PhaseAfterContext, Err: err})
	}

	if err := a.life.Ready(); err != nil {
		return a.abort(ctx, &BootstrapError{Phase: PhaseAfterContext, Err: err})
	}
	a.logger.Info("bootstrap complete", "modules", len(a.Started()), "duration", time.Since(begin))
	return nil
}

func (a *Application) bootstrapModule(ctx context.Context, guard *phaseGuard, d module.Descriptor) (err error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordModuleBootstrap(d.Name, time.Since(start), err)
	}()
	fail := func(phase Phase, cause error) error {
		return &BootstrapError{Module: d.Name, Phase: phase, Err: cause}
	}

	if err := ctx.Err(); err != nil {
		return fail(PhaseBeforeModule, err)
	}
	if err := guard.beforeModule(ctx, d); err != nil {
		return fail(PhaseBeforeModule, err)
	}

	m := a.byName[d.Name]
	c, v, err := a.reg.Open(d.Name)
	if err != nil {
		return fail(PhaseSetup, err)
	}
	a.mu.Lock()
	a.pending = c
	a.mu.Unlock()

	if m.Setup != nil {
		if err := m.Setup(ctx, c, v); err != nil {
			return fail(PhaseSetup, err)
		}
	}
	if err := a.reg.Register(c); err != nil {
		return fail(PhaseRegister, err)
	}
	a.mu.Lock()
	a.pending = nil
	a.started = append(a.started, d.Name)
	a.mu.Unlock()

	published, err := a.reg.Publish(d.Name, m.Expose, m.Transform)
	if err != nil {
		return fail(PhasePublish, err)
	}
	if err := guard.afterModule(ctx, d); err != nil {
		return fail(PhaseAfterModule, err)
	}

	a.logger.Debug("module bootstrapped", "module", d.Name, "exposed", len(published), "duration", time.Since(start))
	return nil
}

// abort rolls back a failed bootstrap and fails the lifecycle with cause.
func (a *Application) abort(ctx context.Context, cause *BootstrapError) error {
	teardownCtx := context.WithoutCancel(ctx)

	var errs []error
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	if pending != nil {
		a.reg.Discard(pending.Module())
		errs = append(errs, pending.Close(teardownCtx))
	}
	errs = append(errs, a.teardown(teardownCtx)...)
	if rollback := errors.Join(errs...); rollback != nil {
		a.logger.Warn("rollback after failed bootstrap", "error", rollback)
	}

	a.metrics.RecordModuleFailure(cause.Module, string(cause.Phase))
	a.logger.Error("bootstrap failed", "module", cause.Module, "phase", cause.Phase, "error", cause.Err)
	a.life.Fail(cause)
	return cause
}

// Stop tears down every bootstrapped module in reverse bootstrap order. It is
// a no-op unless the application is running.
func (a *Application) Stop(ctx context.Context) error {
	if !a.life.BeginStop() {
		return nil
	}
	errs := a.teardown(ctx)
	a.life.Stopped()
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown completed with errors", "error", err)
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}

// release unregisters the container of name and closes it. The container
// stays open when Unregister fails.
func (a *Application) release(ctx context.Context, reg *registry.Registry, name string) error {
	c, ok := reg.Container(name)
	if !ok {
		return nil
	}
	if err := reg.Unregister(name); err != nil {
		return err
	}
	a.logger.Debug("module stopped", "module", name)
	return c.Close(ctx)
}

// teardown unregisters and closes started modules, last first.
func (a *Application) teardown(ctx context.Context) []error {
	a.mu.Lock()
	started := a.started
	a.started = nil
	reg := a.reg
	a.mu.Unlock()

	var (
		errs     []error
		deferred []string
	)
	for _, name := range slices.Backward(started) {
		if err := a.release(ctx, reg, name); err != nil {
			if errors.Is(err, registry.ErrStillReferenced) {
				deferred = append(deferred, name)
				continue
			}
			errs = append(errs, err)
		}
	}
	// A module still referenced by an earlier one is retried once those
	// are gone. It is never closed while the registry refuses to drop it.
	for _, name := range deferred {
		if err := a.release(ctx, reg, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
