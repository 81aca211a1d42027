// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package waker tells idle loops, such as the filesystem poller, when to look
// for new work.
package waker

import "sync"

// A Waker is used to signal to idle routines it's time to look for new work.
type Waker interface {
	// Wake returns a channel that's closed when the idle routine should wake up.
	Wake() <-chan struct{}
}

// broadcaster closes its current channel to wake every waiting routine, then
// replaces it for the next round.
type broadcaster struct {
	mu   sync.Mutex // protects wake
	wake chan struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{wake: make(chan struct{})}
}

// Wake implements the Waker interface.
func (b *broadcaster) Wake() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wake
}

func (b *broadcaster) broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	close(b.wake)
	b.wake = make(chan struct{})
}
