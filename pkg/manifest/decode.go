// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bootkit/bootkit/pkg/cueutil"
)

type (
	hclManifest struct {
		ScopeID *string     `hcl:"scope_id,optional"`
		Modules []hclModule `hcl:"module,block"`
	}

	hclModule struct {
		Name     string     `hcl:"name,label"`
		Role     *string    `hcl:"role,optional"`
		Enabled  *bool      `hcl:"enabled,optional"`
		Requires []string   `hcl:"requires,optional"`
		Optional []string   `hcl:"optional,optional"`
		Expose   *hclExpose `hcl:"expose,block"`
	}

	hclExpose struct {
		All      *bool             `hcl:"all,optional"`
		Names    []string          `hcl:"names,optional"`
		Metadata map[string]string `hcl:"metadata,optional"`
	}
)

func parseCUE(data []byte, filename string) (*Manifest, error) {
	return cueutil.Decode[Manifest](schema, data, "#Manifest", cueutil.WithFilename(filename))
}

func parseYAML(data []byte, filename string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("%s: decode yaml: %w", filename, err)
	}
	return &m, nil
}

func parseTOML(data []byte, filename string) (*Manifest, error) {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: decode toml: %w", filename, err)
	}
	return &m, nil
}

func parseHCL(data []byte, filename string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var raw hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	m := &Manifest{Modules: make([]Entry, 0, len(raw.Modules))}
	if raw.ScopeID != nil {
		m.ScopeID = *raw.ScopeID
	}
	for _, rm := range raw.Modules {
		e := Entry{
			Name:     rm.Name,
			Enabled:  rm.Enabled,
			Requires: rm.Requires,
			Optional: rm.Optional,
		}
		if rm.Role != nil {
			e.Role = *rm.Role
		}
		if rm.Expose != nil {
			e.Expose = &Expose{Names: rm.Expose.Names, Metadata: rm.Expose.Metadata}
			if rm.Expose.All != nil {
				e.Expose.All = *rm.Expose.All
			}
		}
		m.Modules = append(m.Modules, e)
	}
	return m, nil
}
