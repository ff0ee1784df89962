// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"testing"

	"github.com/bootkit/bootkit/pkg/container"
	"github.com/bootkit/bootkit/pkg/manifest"
	"github.com/bootkit/bootkit/pkg/registry"
)

const shopManifest = `
scope_id: "shop"
modules: [
	{name: "web", requires: ["core"]},
	{name: "core", expose: names: ["db"]},
]
`

func TestFromManifest(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(shopManifest), manifest.FormatCUE, "shop.cue")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	app, err := FromManifest(m, map[string]SetupFunc{
		"core": func(_ context.Context, c *container.Container, _ *registry.View) error {
			if err := container.ProvideValue(c, "db", &database{dsn: "pg"}); err != nil {
				return err
			}
			return container.ProvideValue(c, "secret", "hunter2")
		},
	})
	if err != nil {
		t.Fatalf("FromManifest() unexpected error: %v", err)
	}
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	reg := app.Registry()
	if got := reg.ScopeID(); got != "shop" {
		t.Errorf("ScopeID() = %q, want shop", got)
	}
	if !reg.IsExposed("db") {
		t.Error("db not exposed")
	}
	if reg.IsExposed("secret") {
		t.Error("secret exposed despite manifest policy")
	}
	web, err := reg.View("web")
	if err != nil {
		t.Fatalf("View(web) unexpected error: %v", err)
	}
	if _, err := registry.Get[*database](ctx, web); err != nil {
		t.Errorf("Get(*database) from web unexpected error: %v", err)
	}
}

func TestFromManifest_UndeclaredSetup(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(shopManifest), manifest.FormatCUE, "shop.cue")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if _, err := FromManifest(m, map[string]SetupFunc{"ghost": nil}); err == nil {
		t.Error("FromManifest() accepted a setup for an undeclared module")
	}
}
