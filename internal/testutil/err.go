// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"testing"

	"github.com/pkg/errors"
)

// FatalIfErr stops the test at the first unexpected error.
func FatalIfErr(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatal(err)
	}
}

// ExpectErrorIs reports a test error unless err wraps target.
func ExpectErrorIs(tb testing.TB, err, target error) bool {
	tb.Helper()
	if errors.Is(err, target) {
		return true
	}
	tb.Errorf("error %v does not wrap %v", err, target)
	return false
}
