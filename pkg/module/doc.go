// SPDX-License-Identifier: MPL-2.0

// Package module describes the static shape of a bootstrappable module: its
// unique name, structural role, enabled flag and the names of the modules it
// requires or optionally uses. Descriptors are plain values; ordering and
// instantiation live in the bootorder and bootstrap packages.
package module
