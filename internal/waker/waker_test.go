// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package waker_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/vfsnotify/internal/waker"
)

func expectBlocked(tb testing.TB, c <-chan struct{}) {
	tb.Helper()
	select {
	case x := <-c:
		tb.Errorf("<-w.Wake() == %v, expected nothing (should block)", x)
	default:
	}
}

func expectClosed(tb testing.TB, c <-chan struct{}) {
	tb.Helper()
	select {
	case <-c:
	default:
		tb.Errorf("<-w.Wake() blocked, expected close")
	}
}

func TestTestWakerWakes(t *testing.T) {
	w, wake := waker.NewTest()
	c := w.Wake()
	expectBlocked(t, c)
	wake()
	expectClosed(t, c)

	// The next round waits for another wake.
	d := w.Wake()
	expectBlocked(t, d)
	wake()
	expectClosed(t, d)
}

func TestTestWakerWakesAllWaiters(t *testing.T) {
	w, wake := waker.NewTest()
	c, d := w.Wake(), w.Wake()
	wake()
	expectClosed(t, c)
	expectClosed(t, d)
}

func TestTestAlways(t *testing.T) {
	w := waker.NewTestAlways()
	expectClosed(t, w.Wake())
	expectClosed(t, w.Wake())
}

func TestTimedWaker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := waker.NewTimed(ctx, 10*time.Millisecond)
	for i := 0; i < 2; i++ {
		select {
		case <-w.Wake():
		case <-time.After(5 * time.Second):
			t.Fatalf("timed waker did not wake on round %d", i)
		}
	}
}
