// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"testing"
)

// SkipIfShort skips tb under -short.  Tests that wait on the real fsnotify
// watcher or bind a port call it, as those are slow on a loaded machine.
func SkipIfShort(tb testing.TB) {
	tb.Helper()
	if !testing.Short() {
		return
	}
	tb.Skipf("%s needs the real filesystem watcher or network; skipped under -short", tb.Name())
}
