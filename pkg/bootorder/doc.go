// SPDX-License-Identifier: MPL-2.0

// Package bootorder computes the bootstrap order of a set of modules.
//
// Resolution validates declared dependencies, adds implicit edges for
// infrastructure and post-processor modules, places every module after its
// required dependencies with a depth-first walk in registration order, then
// pulls optional dependencies forward where that is safe. The final sequence
// is verified before it is returned as an immutable Order.
package bootorder
