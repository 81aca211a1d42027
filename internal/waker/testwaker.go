// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package waker

// WakeFunc wakes every routine currently waiting on a test Waker.
type WakeFunc func()

// NewTest returns a Waker for use in tests, which wakes only when the
// returned WakeFunc is called.
func NewTest() (Waker, WakeFunc) {
	b := newBroadcaster()
	return b, b.broadcast
}

// alwaysWaker never blocks the wakee.
type alwaysWaker struct {
	wake chan struct{}
}

// NewTestAlways returns a Waker whose channel is always closed.
func NewTestAlways() Waker {
	w := &alwaysWaker{
		wake: make(chan struct{}),
	}
	close(w.wake)
	return w
}

func (w *alwaysWaker) Wake() <-chan struct{} {
	return w.wake
}
