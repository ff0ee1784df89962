// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/bootkit/bootkit/internal/config"
	"github.com/bootkit/bootkit/internal/issue"
	"github.com/bootkit/bootkit/pkg/bootorder"
	"github.com/bootkit/bootkit/pkg/manifest"
)

type (
	// ConfigProvider loads configuration.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// App wires CLI services and shared flag state. All command handlers
	// receive an App reference.
	App struct {
		Config ConfigProvider

		configPath string
		envFile    string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
	}

	fileConfigProvider struct{}
)

func (fileConfigProvider) Load(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error) {
	return config.Load(ctx, opts)
}

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = fileConfigProvider{}
	}
	return &App{Config: deps.Config}
}

func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	return a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.configPath,
		EnvFile:        a.envFile,
	})
}

// loadManifest reads the manifest named by args, falling back to the
// configured default.
func (a *App) loadManifest(cfg *config.Config, args []string) (*manifest.Manifest, string, error) {
	path := cfg.Manifest
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, "", issue.NewErrorContext().
			WithOperation("load manifest").
			WithSuggestion("Pass the manifest path as an argument").
			WithSuggestion("Or set 'manifest' in the configuration file").
			Wrap(fmt.Errorf("%w: no manifest given", manifest.ErrInvalidManifest)).
			BuildError()
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, path, issue.WrapWithContext(err, "load manifest", path)
	}
	return m, path, nil
}

// resolve loads configuration and the manifest, then resolves the order.
func (a *App) resolve(ctx context.Context, args []string, prune bool) (*manifest.Manifest, *bootorder.Order, error) {
	cfg, _, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, path, err := a.loadManifest(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	ds, err := m.Descriptors()
	if err != nil {
		return nil, nil, issue.WrapWithContext(err, "load manifest", path)
	}
	o, err := bootorder.Resolve(ds, prune || cfg.PruneDisabled)
	if err != nil {
		return nil, nil, issue.WrapWithContext(err, "resolve bootstrap order", path)
	}
	return m, o, nil
}
