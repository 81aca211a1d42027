// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package watcher provides a way of watching for filesystem events and
// reporting them to a resource tree.
package watcher

import (
	"context"

	"github.com/google/vfsnotify/internal/event"
)

// Watcher describes an interface for filesystem watching.
type Watcher interface {
	Observe(path string) error
	Unobserve(path string) error
	Close() error
}

// Notifier describes an interface for receiving the events a Watcher sees.
// resource.Tree implements it.
type Notifier interface {
	Notify(context.Context, event.Event) error
}
