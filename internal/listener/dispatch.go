// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package listener

import (
	"expvar"
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/google/vfsnotify/internal/event"
)

var (
	// dispatchTotal counts deliveries to non-empty registries, by event kind.
	dispatchTotal = expvar.NewMap("dispatch_total")
	// dispatchEmptyTotal counts events sent to registries with no listeners.
	dispatchEmptyTotal = expvar.NewInt("dispatch_empty_total")
	// listenerPanicsTotal counts listener panics recovered by DispatchIsolated.
	listenerPanicsTotal = expvar.NewInt("listener_panics_total")
)

// Dispatch delivers e to every listener in r, in registration order, on the
// calling goroutine.  It does nothing if r has no listeners.
//
// A listener that panics stops delivery to the listeners after it; use
// DispatchIsolated to keep going.  Dispatch panics if e is of a kind with no
// listener method, which the closed Event type should make impossible.
func Dispatch(r *Registry, e event.Event) {
	if !r.HasSubscribers() {
		dispatchEmptyTotal.Add(1)
		return
	}
	deliver := callbackFor(e)
	dispatchTotal.Add(e.Kind().String(), 1)
	for _, l := range r.Snapshot() {
		deliver(l)
	}
}

// DispatchIsolated is like Dispatch, but recovers a panic from any listener,
// logs it, and carries on with the next one.  It returns one error per
// recovered panic.
func DispatchIsolated(r *Registry, e event.Event) (errs []error) {
	if !r.HasSubscribers() {
		dispatchEmptyTotal.Add(1)
		return nil
	}
	// Resolved before any recover is in place, so an unknown kind still panics.
	deliver := callbackFor(e)
	dispatchTotal.Add(e.Kind().String(), 1)
	for _, l := range r.Snapshot() {
		if err := deliverRecovered(deliver, l, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func deliverRecovered(deliver func(Listener), l Listener, e event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			listenerPanicsTotal.Add(1)
			err = errors.Errorf("listener %T panicked on %s %q: %v", l, e.Kind(), e.Pathname(), r)
			glog.Error(err)
		}
	}()
	deliver(l)
	return nil
}

// callbackFor returns a function that calls the listener method matching e.
func callbackFor(e event.Event) func(Listener) {
	switch ev := e.(type) {
	case event.FileEvent:
		switch ev.Kind() {
		case event.DataCreated:
			return func(l Listener) { l.FileCreated(ev) }
		case event.FolderCreated:
			return func(l Listener) { l.FolderCreated(ev) }
		case event.Changed:
			return func(l Listener) { l.Changed(ev) }
		case event.Deleted:
			return func(l Listener) { l.Deleted(ev) }
		}
	case event.RenameEvent:
		return func(l Listener) { l.Renamed(ev) }
	case event.AttributeEvent:
		return func(l Listener) { l.AttributeChanged(ev) }
	}
	panic(unreachableKind(e))
}

func unreachableKind(e event.Event) string {
	if e == nil {
		return "listener: dispatch of nil event"
	}
	return fmt.Sprintf("listener: no callback for event kind %s (%T)", e.Kind(), e)
}
