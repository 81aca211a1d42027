// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"path"
	"sync"

	"github.com/golang/glog"

	"github.com/google/vfsnotify/internal/event"
)

// FakeWatcher implements an in-memory Watcher.  Events are injected by tests
// and delivered synchronously to the Notifier.
type FakeWatcher struct {
	n Notifier

	watchesMu sync.RWMutex
	watches   map[string]struct{}
	isClosed  bool
}

// NewFakeWatcher returns a fake Watcher for use in tests.
func NewFakeWatcher(n Notifier) *FakeWatcher {
	return &FakeWatcher{
		n:       n,
		watches: make(map[string]struct{})}
}

func (w *FakeWatcher) Observe(name string) error {
	w.watchesMu.Lock()
	defer w.watchesMu.Unlock()
	w.watches[name] = struct{}{}
	return nil
}

// Close closes down the FakeWatcher
func (w *FakeWatcher) Close() error {
	w.watchesMu.Lock()
	defer w.watchesMu.Unlock()
	w.isClosed = true
	return nil
}

// Unobserve stops the FakeWatcher watching name.
func (w *FakeWatcher) Unobserve(name string) error {
	w.watchesMu.Lock()
	defer w.watchesMu.Unlock()
	delete(w.watches, name)
	return nil
}

// IsWatching indicates if name, or the folder containing it, is watched.
func (w *FakeWatcher) IsWatching(name string) bool {
	w.watchesMu.RLock()
	defer w.watchesMu.RUnlock()
	if w.isClosed {
		return false
	}
	_, ok := w.watches[name]
	if !ok {
		_, ok = w.watches[path.Dir(name)]
	}
	return ok
}

// SendEvent delivers e if its path is watched, returning the Notifier's error.
func (w *FakeWatcher) SendEvent(e event.Event) error {
	if !w.IsWatching(e.Pathname()) {
		glog.Infof("Didn't find %s in watched list", e.Pathname())
		return nil
	}
	return w.n.Notify(context.Background(), e)
}

// InjectCreate lets a test inject a fake creation event.
func (w *FakeWatcher) InjectCreate(name string, dir bool) error {
	return w.SendEvent(event.NewCreateEvent(name, dir))
}

// InjectUpdate lets a test inject a fake update event.
func (w *FakeWatcher) InjectUpdate(name string) error {
	return w.SendEvent(event.NewChangeEvent(name))
}

// InjectDelete lets a test inject a fake deletion event.
func (w *FakeWatcher) InjectDelete(name string) error {
	return w.SendEvent(event.NewDeleteEvent(name))
}

// InjectRename lets a test inject a fake rename of oldName to name.
func (w *FakeWatcher) InjectRename(oldName, name string) error {
	if !w.IsWatching(oldName) {
		glog.Warningf("can't rename: not watching %s", oldName)
		return nil
	}
	return w.SendEvent(event.NewRenameEvent(name, oldName))
}

// InjectAttribute lets a test inject a fake attribute change.
func (w *FakeWatcher) InjectAttribute(name, attr string, oldValue, newValue interface{}) error {
	return w.SendEvent(event.NewAttributeEvent(name, attr, oldValue, newValue))
}
