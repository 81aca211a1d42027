// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// TestTempDir creates a temporary directory for use during tests, returning
// the pathname with symlinks resolved, so that it matches the names reported
// by filesystem notifications.
func TestTempDir(tb testing.TB) string {
	tb.Helper()
	name, err := ioutil.TempDir("", "vfsnotify-test")
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := os.RemoveAll(name); err != nil {
			tb.Fatalf("os.RemoveAll(%s): %s", name, err)
		}
	})
	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		tb.Fatal(err)
	}
	return resolved
}

// TestOpenFile creates a new file called name and returns the opened file.
func TestOpenFile(tb testing.TB, name string) *os.File {
	tb.Helper()
	f, err := os.OpenFile(filepath.Clean(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		tb.Fatal(err)
	}
	return f
}

// TestMkdir creates the directory name and any missing parents.
func TestMkdir(tb testing.TB, name string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Clean(name), 0o700); err != nil {
		tb.Fatal(err)
	}
}
