// SPDX-License-Identifier: MPL-2.0

// Package registry federates the per-module containers of one bootstrap.
//
// Each module's container is registered once its setup is complete; the
// components it exposes are then published as descriptors into a single
// root scope. A View resolves lookups for one module: its own definitions
// first, then descriptors published by modules placed earlier in the
// bootstrap order. Resolving a descriptor always reaches the owning
// module's container, so every lookup path yields the same instance.
//
// Type-based selection follows a fixed precedence: a single candidate wins;
// otherwise a single local candidate; otherwise a single primary; otherwise
// the lowest priority among the primaries (or among all candidates when
// there are no primaries). Anything left is ambiguous.
package registry
