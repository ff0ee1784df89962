// SPDX-License-Identifier: MPL-2.0

// Package container implements the per-module component container.
//
// A Container holds named component definitions declared by one module
// during its setup. Definitions are either values, lazily built factories,
// or forwarding definitions whose Target is a remote Handle into another
// module's container. Factory instances are built at most once, even under
// concurrent lookups, and are destroyed in reverse creation order on Close.
// Once finalized a container accepts no new definitions.
package container
