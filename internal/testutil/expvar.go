// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"expvar"
	"testing"
	"time"

	"github.com/golang/glog"
)

// TestGetExpvar fetches the expvar metric `name`, and returns the expvar.
// Callers are responsible for type assertions on the returned value.
func TestGetExpvar(tb testing.TB, name string) expvar.Var {
	tb.Helper()
	v := expvar.Get(name)
	if v == nil {
		tb.Fatalf("expvar %q is not published", name)
	}
	glog.V(2).Infof("Var %q is %v", name, v)
	return v
}

const defaultDoOrTimeoutDeadline = 10 * time.Second

// ExpectExpvarDeltaWithDeadline returns a function which tests if the Int
// expvar name has changed by want since ExpectExpvarDeltaWithDeadline was
// called, waiting up to a deadline for it to do so.
func ExpectExpvarDeltaWithDeadline(tb testing.TB, name string, want int64) func() {
	tb.Helper()
	return expectDelta(tb, name, want, func() int64 {
		return TestGetExpvar(tb, name).(*expvar.Int).Value()
	})
}

// ExpectMapExpvarDeltaWithDeadline is like ExpectExpvarDeltaWithDeadline for
// the Int stored at key in the Map expvar name.  A missing key counts as zero.
func ExpectMapExpvarDeltaWithDeadline(tb testing.TB, name, key string, want int64) func() {
	tb.Helper()
	return expectDelta(tb, name+"["+key+"]", want, func() int64 {
		v := TestGetExpvar(tb, name).(*expvar.Map).Get(key)
		if v == nil {
			return 0
		}
		return v.(*expvar.Int).Value()
	})
}

func expectDelta(tb testing.TB, name string, want int64, get func() int64) func() {
	tb.Helper()
	start := get()
	return func() {
		tb.Helper()
		ok, err := DoOrTimeout(func() (bool, error) {
			return get()-start == want, nil
		}, defaultDoOrTimeoutDeadline, 10*time.Millisecond)
		FatalIfErr(tb, err)
		if !ok {
			now := get()
			tb.Errorf("Did not see %s have delta by deadline: got %v - %v = %d, want %d", name, now, start, now-start, want)
		}
	}
}
