// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bootkit/bootkit/pkg/exposure"
	"github.com/bootkit/bootkit/pkg/module"
)

const (
	// FormatCUE is a CUE document validated against the embedded schema.
	FormatCUE Format = "cue"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
	// FormatTOML is a TOML document.
	FormatTOML Format = "toml"
	// FormatHCL is an HCL document with one module block per module.
	FormatHCL Format = "hcl"
)

var (
	//go:embed manifest_schema.cue
	schema []byte

	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrInvalidManifest is the sentinel wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid manifest")
)

type (
	// Format identifies a manifest encoding.
	Format string

	// Manifest is a decoded module manifest.
	Manifest struct {
		ScopeID string  `json:"scope_id,omitempty" yaml:"scope_id" toml:"scope_id"`
		Modules []Entry `json:"modules" yaml:"modules" toml:"modules"`
	}

	// Entry declares one module.
	Entry struct {
		Name     string   `json:"name" yaml:"name" toml:"name"`
		Role     string   `json:"role,omitempty" yaml:"role" toml:"role"`
		Enabled  *bool    `json:"enabled,omitempty" yaml:"enabled" toml:"enabled"`
		Requires []string `json:"requires,omitempty" yaml:"requires" toml:"requires"`
		Optional []string `json:"optional,omitempty" yaml:"optional" toml:"optional"`
		Expose   *Expose  `json:"expose,omitempty" yaml:"expose" toml:"expose"`
	}

	// Expose is a declarative exposure policy. All wins over the other
	// fields; Names and Metadata select components matching either.
	Expose struct {
		All      bool              `json:"all,omitempty" yaml:"all" toml:"all"`
		Names    []string          `json:"names,omitempty" yaml:"names" toml:"names"`
		Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata" toml:"metadata"`
	}

	// InvalidManifestError reports a manifest that decoded but does not
	// describe a valid module set.
	InvalidManifestError struct {
		File string
		Err  error
	}
)

// Error implements the error interface.
func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *InvalidManifestError) Unwrap() []error { return []error{ErrInvalidManifest, e.Err} }

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data, format, filepath.Base(path))
}

// Parse decodes data in the given format and validates the resulting module
// set. filename is used in error messages only.
func Parse(data []byte, format Format, filename string) (*Manifest, error) {
	var (
		m   *Manifest
		err error
	)
	switch format {
	case FormatCUE:
		m, err = parseCUE(data, filename)
	case FormatYAML:
		m, err = parseYAML(data, filename)
	case FormatTOML:
		m, err = parseTOML(data, filename)
	case FormatHCL:
		m, err = parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if _, err := m.Descriptors(); err != nil {
		return nil, &InvalidManifestError{File: filename, Err: err}
	}
	return m, nil
}

// Descriptors converts the entries to module descriptors in declaration
// order and validates them as a set.
func (m *Manifest) Descriptors() ([]module.Descriptor, error) {
	out := make([]module.Descriptor, 0, len(m.Modules))
	for _, e := range m.Modules {
		d, err := e.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := module.ValidateSet(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Entry returns the entry named name.
func (m *Manifest) Entry(name string) (Entry, bool) {
	for _, e := range m.Modules {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Descriptor converts e to a module descriptor. Modules are enabled unless
// enabled is set to false.
func (e Entry) Descriptor() (module.Descriptor, error) {
	opts := []module.Option{module.Requires(e.Requires...), module.Uses(e.Optional...)}
	if e.Role != "" {
		role, err := module.ParseRole(e.Role)
		if err != nil {
			return module.Descriptor{}, fmt.Errorf("module %q: %w", e.Name, err)
		}
		opts = append(opts, module.WithRole(role))
	}
	if e.Enabled != nil && !*e.Enabled {
		opts = append(opts, module.Disabled())
	}
	d := module.New(e.Name, opts...)
	if err := d.Validate(); err != nil {
		return module.Descriptor{}, err
	}
	return d, nil
}

// Filter returns the exposure filter declared by e. A module without an
// expose section publishes nothing.
func (e Entry) Filter() exposure.Filter {
	if e.Expose == nil {
		return exposure.None()
	}
	if e.Expose.All {
		return exposure.All()
	}
	var fs []exposure.Filter
	if len(e.Expose.Names) > 0 {
		fs = append(fs, exposure.Names(e.Expose.Names...))
	}
	for k, v := range e.Expose.Metadata {
		fs = append(fs, exposure.Metadata(k, v))
	}
	if len(fs) == 0 {
		return exposure.None()
	}
	return exposure.AnyOf(fs...)
}
