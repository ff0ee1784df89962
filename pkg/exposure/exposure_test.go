// SPDX-License-Identifier: MPL-2.0

package exposure

import (
	"slices"
	"testing"

	"github.com/bootkit/bootkit/pkg/container"
)

type (
	store interface{ Load() string }

	memStore struct{}

	takenNames map[string]bool
)

func (memStore) Load() string { return "mem" }

func (s takenNames) Taken(name string) bool { return s[name] }

func newCoreContainer(t *testing.T) *container.Container {
	t.Helper()
	c := container.New("core")
	mustRegister(t, container.ProvideValue[store](c, "store", memStore{}, container.AsPrimary(), container.WithAliases("db")))
	mustRegister(t, container.ProvideValue(c, "port", 8080, container.WithMetadata("public", "true")))
	mustRegister(t, container.ProvideValue(c, "secret", "s3cr3t"))
	return c
}

func mustRegister(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
}

func preferredNames(ds []*Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.PreferredName()
	}
	return out
}

func TestFilters(t *testing.T) {
	t.Parallel()

	c := newCoreContainer(t)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"nil exposes nothing", nil, []string{}},
		{"none", None(), []string{}},
		{"all", All(), []string{"store", "port", "secret"}},
		{"names by alias", Names("db"), []string{"store"}},
		{"types", TypeOf[store](), []string{"store"}},
		{"metadata", Metadata("public", "true"), []string{"port"}},
		{"primaries", Primaries(), []string{"store"}},
		{"any of", AnyOf(Names("secret"), Metadata("public", "true")), []string{"port", "secret"}},
		{"all of", AllOf(All(), Not(Names("secret"))), []string{"store", "port"}},
		{"empty all of", AllOf(), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := preferredNames(Compute(c, tt.filter, nil, "app", nil))
			if !slices.Equal(got, tt.want) {
				t.Errorf("exposed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompute_CollisionFallsBackToQualifiedName(t *testing.T) {
	t.Parallel()

	c := newCoreContainer(t)
	ds := Compute(c, Names("store"), takenNames{"store": true}, "app", nil)
	if len(ds) != 1 {
		t.Fatalf("expected one descriptor, got %d", len(ds))
	}
	d := ds[0]
	if d.PreferredName() != "app.core@store" {
		t.Errorf("PreferredName() = %q, want app.core@store", d.PreferredName())
	}
	if !d.Qualified() {
		t.Error("Qualified() should be true")
	}
	if !slices.Equal(d.Aliases(), []string{"db"}) {
		t.Errorf("Aliases() = %v, want [db]", d.Aliases())
	}
}

func TestCompute_CollidingAliasDropped(t *testing.T) {
	t.Parallel()

	c := newCoreContainer(t)
	ds := Compute(c, Names("store"), takenNames{"db": true}, "app", nil)
	if ds[0].PreferredName() != "store" {
		t.Errorf("PreferredName() = %q, want store", ds[0].PreferredName())
	}
	if len(ds[0].Aliases()) != 0 {
		t.Errorf("colliding alias should be dropped, got %v", ds[0].Aliases())
	}
}

func TestCompute_Transformer(t *testing.T) {
	t.Parallel()

	c := newCoreContainer(t)
	ds := Compute(c, Names("store"), nil, "app", Prefix("core."))
	if got := ds[0].Names(); !slices.Equal(got, []string{"core.store", "core.db"}) {
		t.Errorf("Names() = %v, want [core.store core.db]", got)
	}
	if ds[0].Original() != "store" {
		t.Errorf("Original() = %q, want store", ds[0].Original())
	}
}

func TestCompute_BatchCollision(t *testing.T) {
	t.Parallel()

	c := newCoreContainer(t)
	same := func(_ Candidate, n Naming) Naming { return Naming{Preferred: "shared"} }
	ds := Compute(c, Names("store", "port"), nil, "app", same)
	want := []string{"shared", "app.core@port"}
	if got := preferredNames(ds); !slices.Equal(got, want) {
		t.Errorf("preferred = %v, want %v", got, want)
	}
}

func TestCompute_ReexportKeepsOriginalOwner(t *testing.T) {
	t.Parallel()

	web := container.New("web")
	mustRegister(t, web.Forward("storage", container.Remote("core", "store"), container.TypeOf[store](), container.WithPriority(3)))

	ds := Compute(web, All(), nil, "app", nil)
	if len(ds) != 1 {
		t.Fatalf("expected one descriptor, got %d", len(ds))
	}
	d := ds[0]
	if d.Owner() != "core" || d.Original() != "store" {
		t.Errorf("owner/original = %s/%s, want core/store", d.Owner(), d.Original())
	}
	if d.Via() != "web" || d.Publisher() != "web" {
		t.Errorf("Via() = %q, Publisher() = %q, want web", d.Via(), d.Publisher())
	}
	if d.PreferredName() != "storage" {
		t.Errorf("PreferredName() = %q, want storage", d.PreferredName())
	}
	if h := d.Handle(); !h.IsRemote() || h.Key() != "core@store" {
		t.Errorf("Handle() = %v", h)
	}
	if p := d.Priority(); p == nil || *p != 3 {
		t.Errorf("Priority() = %v, want 3", p)
	}
}

func TestDescriptor_AddAlias(t *testing.T) {
	t.Parallel()

	c := newCoreContainer(t)
	d := Compute(c, Names("port"), nil, "app", nil)[0]
	if d.AddAlias("") || d.AddAlias("port") {
		t.Error("empty and preferred names must be rejected")
	}
	if !d.AddAlias("http.port") {
		t.Error("new alias should be accepted")
	}
	if d.AddAlias("http.port") {
		t.Error("duplicate alias should be rejected")
	}
}
