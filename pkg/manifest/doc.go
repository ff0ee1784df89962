// SPDX-License-Identifier: MPL-2.0

// Package manifest loads module declarations from a file. A manifest lists
// modules with their role, enabled flag, required and optional dependencies,
// and a declarative exposure policy. CUE, YAML, TOML and HCL documents
// describe the same structure; the format is chosen by file extension.
//
// CUE:
//
//	scope_id: "app"
//	modules: [
//		{name: "core", expose: all: true},
//		{name: "web", requires: ["core"], optional: ["cache"]},
//	]
//
// HCL:
//
//	scope_id = "app"
//	module "core" {
//	  expose {
//	    all = true
//	  }
//	}
//	module "web" {
//	  requires = ["core"]
//	}
package manifest
