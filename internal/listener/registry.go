// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package listener keeps the set of observers registered on a resource and
// fans change events out to them.
package listener

import (
	"reflect"
	"sync"

	"github.com/google/vfsnotify/internal/event"
)

// Listener describes an interface for receiving change notifications on a
// resource.  Each event kind is delivered to its own method.
type Listener interface {
	FolderCreated(event.FileEvent)
	FileCreated(event.FileEvent)
	Changed(event.FileEvent)
	Deleted(event.FileEvent)
	Renamed(event.RenameEvent)
	AttributeChanged(event.AttributeEvent)
}

// Registry holds the listeners of one resource.  The zero value is an empty
// registry ready for use.
//
// Dispatch iterates a snapshot of the listeners, so listeners may be added or
// removed, even from within a callback, without affecting a delivery already
// in progress.
type Registry struct {
	mu        sync.RWMutex // protects following fields
	listeners []Listener
	snapshot  []Listener // nil when invalidated by a mutation
}

// Subscribe adds h to the registry.  It returns false, and leaves the
// registry unchanged, if h does not implement Listener or if its dynamic type
// is not comparable, since Unsubscribe matches registrations with ==.  Adding
// the same listener twice means it is called twice for each event.
func (r *Registry) Subscribe(h interface{}) bool {
	l, ok := h.(Listener)
	if !ok || !isComparable(l) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
	r.snapshot = nil
	return true
}

// Unsubscribe removes the first registration of l.  It does nothing if l is
// not registered, including when l could never have been subscribed because
// its dynamic type is not comparable.
func (r *Registry) Unsubscribe(l Listener) {
	if !isComparable(l) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.listeners {
		if x != l {
			continue
		}
		// Snapshots are copies, so the backing array can be edited in place.
		copy(r.listeners[i:], r.listeners[i+1:])
		r.listeners[len(r.listeners)-1] = nil
		r.listeners = r.listeners[:len(r.listeners)-1]
		r.snapshot = nil
		return
	}
}

// isComparable reports whether == on l is safe.  A value receiver holding a
// slice, map or func would panic.
func isComparable(l Listener) bool {
	return l != nil && reflect.TypeOf(l).Comparable()
}

// Snapshot returns the listeners currently registered, in the order they were
// added.  The returned slice is shared between callers and must not be
// modified.  It is rebuilt only after Subscribe or Unsubscribe.
func (r *Registry) Snapshot() []Listener {
	r.mu.RLock()
	s := r.snapshot
	r.mu.RUnlock()
	if s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		r.snapshot = make([]Listener, len(r.listeners))
		copy(r.snapshot, r.listeners)
	}
	return r.snapshot
}

// HasSubscribers indicates if any listener is registered.
func (r *Registry) HasSubscribers() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners) > 0
}

// Len returns the number of registrations, counting duplicates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
