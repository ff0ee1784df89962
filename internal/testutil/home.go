// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetConfigHome points the user config directory at dir for the rest of the
// test and returns the path os.UserConfigDir will report.
//
// Platform handling:
//   - Windows: sets AppData
//   - macOS: sets HOME, config lives under Library/Application Support
//   - others: sets XDG_CONFIG_HOME
func SetConfigHome(t testing.TB, dir string) string {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		t.Setenv("AppData", dir)
		return dir
	case "darwin", "ios":
		t.Setenv("HOME", dir)
		return filepath.Join(dir, "Library", "Application Support")
	case "plan9":
		t.Setenv("home", dir)
		return filepath.Join(dir, "lib")
	default:
		t.Setenv("XDG_CONFIG_HOME", dir)
		return dir
	}
}
