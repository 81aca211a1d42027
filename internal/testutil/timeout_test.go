// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

var errGiveUp = errors.New("give up")

// after returns a condition that is met on call n, or fails with err then.
func after(n int, err error) func() (bool, error) {
	calls := 0
	return func() (bool, error) {
		calls++
		if calls < n {
			return false, nil
		}
		return err == nil, err
	}
}

func TestDoOrTimeout(t *testing.T) {
	for _, tc := range []struct {
		name     string
		do       func() (bool, error)
		deadline time.Duration
		wantOK   bool
		wantErr  error
	}{
		{"never", func() (bool, error) { return false, nil }, 10 * time.Millisecond, false, nil},
		{"first call", after(1, nil), time.Second, true, nil},
		{"fifth call", after(5, nil), time.Second, true, nil},
		{"fails", after(3, errGiveUp), time.Second, false, errGiveUp},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ok, err := DoOrTimeout(tc.do, tc.deadline, time.Millisecond)
			if ok != tc.wantOK {
				t.Errorf("DoOrTimeout ok = %v, want %v", ok, tc.wantOK)
			}
			if tc.wantErr == nil {
				FatalIfErr(t, err)
				return
			}
			ExpectErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDoOrTimeoutStopsCalling(t *testing.T) {
	calls := 0
	ok, err := DoOrTimeout(func() (bool, error) {
		calls++
		return true, nil
	}, time.Second, time.Millisecond)
	FatalIfErr(t, err)
	if !ok || calls != 1 {
		t.Errorf("DoOrTimeout = %v after %d calls, want true after 1", ok, calls)
	}
}
