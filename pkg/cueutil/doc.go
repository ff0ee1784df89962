// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates documents against an embedded CUE schema and
// decodes them into Go values.
//
// Decoding always follows the same three steps: the schema is compiled, the
// document is compiled and unified with one of the schema's definitions,
// and the unified value is validated and decoded.
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	m, err := cueutil.Decode[Manifest](schema, data, "#Manifest",
//	    cueutil.WithFilename("bootkit.cue"))
package cueutil
