// SPDX-License-Identifier: MPL-2.0

// Package bootstrap drives the bootstrap of a modular application.
//
// Start resolves the bootstrap order before touching any module, then
// bootstraps each enabled module in order: the installer's
// before-module hook runs, the module's container is created and populated
// by its Setup, registered, its exposed components are published, and the
// after-module hook runs. Installer hooks run under a bootstrap lock that is
// acquired on first use and released on every exit path. A failure rolls
// back every module bootstrapped so far in reverse order. Stop tears modules
// down in reverse bootstrap order.
package bootstrap
