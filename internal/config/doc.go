// SPDX-License-Identifier: MPL-2.0

// Package config handles bootkit configuration using Viper with CUE as the file format.
//
// Configuration is read from config.cue in the user config directory (or the
// working directory), validated against an embedded CUE schema, and
// overridden by BOOTKIT_* environment variables. Variables may also come from
// a .env file; real environment variables win over it. The resulting Config
// builds the logger, metrics collector and bootstrap lock the application runs
// with.
package config
