// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"time"

	"github.com/golang/glog"
)

// DoOrTimeout retries do every interval until it reports done or fails.  It
// returns (false, nil) if deadline passes first, and do's error otherwise.
// Watcher tests use it to wait for events delivered on other goroutines.
func DoOrTimeout(do func() (bool, error), deadline, interval time.Duration) (bool, error) {
	expired := time.NewTimer(deadline)
	defer expired.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for attempt := 1; ; attempt++ {
		select {
		case <-expired.C:
			glog.V(2).Infof("DoOrTimeout: gave up after %d attempts in %s", attempt-1, deadline)
			return false, nil
		case <-tick.C:
		}
		done, err := do()
		if err != nil {
			return false, err
		}
		if done {
			glog.V(2).Infof("DoOrTimeout: done on attempt %d", attempt)
			return true, nil
		}
	}
}
