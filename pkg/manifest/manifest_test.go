// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bootkit/bootkit/pkg/cueutil"
	"github.com/bootkit/bootkit/pkg/exposure"
	"github.com/bootkit/bootkit/pkg/module"
)

func TestLoad_AllFormats(t *testing.T) {
	t.Parallel()

	for _, file := range []string{"app.cue", "app.yaml", "app.toml", "app.hcl"} {
		t.Run(file, func(t *testing.T) {
			t.Parallel()

			m, err := Load(filepath.Join("testdata", file))
			if err != nil {
				t.Fatalf("Load(%s) unexpected error: %v", file, err)
			}
			if m.ScopeID != "shop" {
				t.Errorf("ScopeID = %q, want shop", m.ScopeID)
			}

			ds, err := m.Descriptors()
			if err != nil {
				t.Fatalf("Descriptors() unexpected error: %v", err)
			}
			names := make([]string, len(ds))
			for i, d := range ds {
				names[i] = d.Name
			}
			if want := []string{"log", "core", "web", "cache", "audit"}; !slices.Equal(names, want) {
				t.Fatalf("names = %v, want %v", names, want)
			}

			if !ds[0].IsInfrastructure() {
				t.Errorf("log role = %s, want infrastructure", ds[0].EffectiveRole())
			}
			if !ds[4].IsPostProcessor() {
				t.Errorf("audit role = %s, want post-processor", ds[4].EffectiveRole())
			}
			if !ds[1].Enabled || ds[3].Enabled {
				t.Errorf("enabled flags = core:%v cache:%v, want true false", ds[1].Enabled, ds[3].Enabled)
			}
			if !slices.Equal(ds[2].Required, []string{"core"}) || !slices.Equal(ds[2].Optional, []string{"cache"}) {
				t.Errorf("web deps = %v / %v", ds[2].Required, ds[2].Optional)
			}

			web, _ := m.Entry("web")
			if !web.Filter().Matches(exposure.Candidate{Module: "web", Name: "handler"}) {
				t.Error("web filter does not expose handler")
			}
			if web.Filter().Matches(exposure.Candidate{Module: "web", Name: "secret"}) {
				t.Error("web filter exposes secret")
			}
			core, _ := m.Entry("core")
			if !core.Filter().Matches(exposure.Candidate{Module: "core", Name: "anything"}) {
				t.Error("core filter does not expose everything")
			}
			log, _ := m.Entry("log")
			if log.Filter().Matches(exposure.Candidate{Module: "log", Name: "anything"}) {
				t.Error("module without expose section publishes components")
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		data   string
		target error
	}{
		{
			name:   "cue unknown field",
			format: FormatCUE,
			data:   `modules: [{name: "a", depends: ["b"]}]`,
			target: cueutil.ErrValidation,
		},
		{
			name:   "cue bad role",
			format: FormatCUE,
			data:   `modules: [{name: "a", role: "boss"}]`,
			target: cueutil.ErrValidation,
		},
		{
			name:   "yaml duplicate module",
			format: FormatYAML,
			data:   "modules:\n  - name: a\n  - name: a\n",
			target: module.ErrDuplicateModule,
		},
		{
			name:   "toml bad role",
			format: FormatTOML,
			data:   "[[modules]]\nname = \"a\"\nrole = \"boss\"\n",
			target: module.ErrInvalidRole,
		},
		{
			name:   "hcl empty dependency",
			format: FormatHCL,
			data:   "module \"a\" {\n  requires = [\"\"]\n}\n",
			target: module.ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data), tt.format, "m."+string(tt.format))
			if !errors.Is(err, tt.target) {
				t.Errorf("Parse() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestParse_UnknownFieldsRejected(t *testing.T) {
	t.Parallel()

	inputs := map[Format]string{
		FormatYAML: "modules:\n  - name: a\n    depends: [b]\n",
		FormatTOML: "[[modules]]\nname = \"a\"\ndepends = [\"b\"]\n",
		FormatHCL:  "module \"a\" {\n  depends = [\"b\"]\n}\n",
	}
	for format, data := range inputs {
		if _, err := Parse([]byte(data), format, "m"); err == nil {
			t.Errorf("Parse(%s) accepted an unknown field", format)
		}
	}
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"a.cue":  FormatCUE,
		"a.yml":  FormatYAML,
		"a.YAML": FormatYAML,
		"a.toml": FormatTOML,
		"a.hcl":  FormatHCL,
	}
	for path, want := range tests {
		got, err := FormatOf(path)
		if err != nil || got != want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatOf("a.json"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("FormatOf(a.json) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEntry_FilterMetadata(t *testing.T) {
	t.Parallel()

	e := Entry{Name: "core", Expose: &Expose{Metadata: map[string]string{"tier": "public"}}}
	f := e.Filter()
	if !f.Matches(exposure.Candidate{Name: "x", Metadata: map[string]string{"tier": "public"}}) {
		t.Error("metadata filter rejected a matching component")
	}
	if f.Matches(exposure.Candidate{Name: "y", Metadata: map[string]string{"tier": "internal"}}) {
		t.Error("metadata filter accepted a non-matching component")
	}
	if (Entry{Expose: &Expose{}}).Filter().Matches(exposure.Candidate{Name: "z"}) {
		t.Error("empty expose section publishes components")
	}
}
