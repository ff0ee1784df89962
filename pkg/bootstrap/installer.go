// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bootkit/bootkit/internal/metrics"
	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/lock"
	"github.com/bootkit/bootkit/pkg/module"
)

type (
	// Installer receives phase callbacks during bootstrap. Callbacks run
	// while the bootstrap lock is held.
	Installer interface {
		BeforeContextBootstrap(ctx context.Context, order *bootorder.Order) error
		BeforeModuleBootstrap(ctx context.Context, m module.Descriptor) error
		AfterModuleBootstrap(ctx context.Context, m module.Descriptor) error
		AfterContextBootstrap(ctx context.Context, order *bootorder.Order) error
	}

	// InstallerFuncs adapts optional functions to Installer. Nil fields are
	// skipped.
	InstallerFuncs struct {
		BeforeContext func(ctx context.Context, order *bootorder.Order) error
		BeforeModule  func(ctx context.Context, m module.Descriptor) error
		AfterModule   func(ctx context.Context, m module.Descriptor) error
		AfterContext  func(ctx context.Context, order *bootorder.Order) error
	}

	// phaseGuard runs installer callbacks under the bootstrap lock, acquiring
	// it on the first callback.
	phaseGuard struct {
		installer Installer
		provider  lock.Provider
		held      lock.Lock
		logger    *log.Logger
		metrics   *metrics.Collector
	}
)

// BeforeContextBootstrap implements Installer.
func (f InstallerFuncs) BeforeContextBootstrap(ctx context.Context, order *bootorder.Order) error {
	if f.BeforeContext == nil {
		return nil
	}
	return f.BeforeContext(ctx, order)
}

// BeforeModuleBootstrap implements Installer.
func (f InstallerFuncs) BeforeModuleBootstrap(ctx context.Context, m module.Descriptor) error {
	if f.BeforeModule == nil {
		return nil
	}
	return f.BeforeModule(ctx, m)
}

// AfterModuleBootstrap implements Installer.
func (f InstallerFuncs) AfterModuleBootstrap(ctx context.Context, m module.Descriptor) error {
	if f.AfterModule == nil {
		return nil
	}
	return f.AfterModule(ctx, m)
}

// AfterContextBootstrap implements Installer.
func (f InstallerFuncs) AfterContextBootstrap(ctx context.Context, order *bootorder.Order) error {
	if f.AfterContext == nil {
		return nil
	}
	return f.AfterContext(ctx, order)
}

func (g *phaseGuard) beforeContext(ctx context.Context, order *bootorder.Order) error {
	return g.run(ctx, func() error { return g.installer.BeforeContextBootstrap(ctx, order) })
}

func (g *phaseGuard) beforeModule(ctx context.Context, m module.Descriptor) error {
	return g.run(ctx, func() error { return g.installer.BeforeModuleBootstrap(ctx, m) })
}

func (g *phaseGuard) afterModule(ctx context.Context, m module.Descriptor) error {
	return g.run(ctx, func() error { return g.installer.AfterModuleBootstrap(ctx, m) })
}

func (g *phaseGuard) afterContext(ctx context.Context, order *bootorder.Order) error {
	return g.run(ctx, func() error { return g.installer.AfterContextBootstrap(ctx, order) })
}

func (g *phaseGuard) run(ctx context.Context, fn func() error) error {
	if g.installer == nil {
		return nil
	}
	if err := g.acquire(ctx); err != nil {
		return err
	}
	return fn()
}

func (g *phaseGuard) acquire(ctx context.Context) error {
	if g.held != nil || g.provider == nil {
		return nil
	}
	start := time.Now()
	l, err := g.provider.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire bootstrap lock: %w", err)
	}
	g.held = l
	g.metrics.RecordLockWait(time.Since(start))
	g.logger.Debug("bootstrap lock acquired", "duration", time.Since(start))
	return nil
}

// release gives the lock back if it was acquired. It is safe to call more
// than once.
func (g *phaseGuard) release(ctx context.Context) error {
	if g.held == nil {
		return nil
	}
	l := g.held
	g.held = nil
	if err := l.Release(ctx); err != nil {
		return fmt.Errorf("release bootstrap lock: %w", err)
	}
	g.logger.Debug("bootstrap lock released")
	return nil
}
