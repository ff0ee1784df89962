// SPDX-License-Identifier: MPL-2.0

// Package exposure decides which components of a module become visible to
// the root scope and under which names.
//
// A Filter selects definitions; nothing is exposed by default. For every
// selected definition Compute produces a Descriptor naming the original
// owning module and component so lookups through a re-exporting module
// still reach the owner. When the preferred name is already taken in the
// receiving scope the descriptor falls back to a fully qualified name.
package exposure
