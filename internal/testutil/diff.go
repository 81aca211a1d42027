// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package testutil holds helpers shared by the tests of the vfsnotify packages.
package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func Diff(a, b interface{}, opts ...cmp.Option) string {
	return cmp.Diff(a, b, opts...)
}

// ExpectNoDiff reports a test error with the diff of want and got if they are
// not equal.  It returns true when they are equal.
func ExpectNoDiff(tb testing.TB, want, got interface{}, opts ...cmp.Option) bool {
	tb.Helper()
	if diff := Diff(want, got, opts...); diff != "" {
		tb.Errorf("unexpected diff (-want +got):\n%s", diff)
		return false
	}
	return true
}

// EquateEmpty treats nil and empty slices and maps as equal.
func EquateEmpty() cmp.Option {
	return cmpopts.EquateEmpty()
}
