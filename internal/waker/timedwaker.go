// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package waker

import (
	"context"
	"time"
)

// NewTimed returns a Waker that wakes its callers every interval, until ctx is
// cancelled.
func NewTimed(ctx context.Context, interval time.Duration) Waker {
	b := newBroadcaster()
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.broadcast()
			}
		}
	}()
	return b
}
