// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"testing"
)

func TestSetConfigHome(t *testing.T) {
	dir := t.TempDir()
	want := SetConfigHome(t, dir)

	got, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("UserConfigDir() error: %v", err)
	}
	if got != want {
		t.Errorf("UserConfigDir() = %q, want %q", got, want)
	}
}

func TestMustWriteFile(t *testing.T) {
	t.Parallel()

	path := MustWriteFile(t, t.TempDir(), "nested/dir/file.txt", "hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}
}

func TestMustChdir(t *testing.T) {
	before, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Run("inner", func(t *testing.T) {
		MustChdir(t, t.TempDir())
		now, _ := os.Getwd()
		if now == before {
			t.Error("working directory did not change")
		}
	})
	after, _ := os.Getwd()
	if after != before {
		t.Errorf("working directory = %q after cleanup, want %q", after, before)
	}
}
