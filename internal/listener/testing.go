// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package listener

import (
	"sync"

	"github.com/google/vfsnotify/internal/event"
)

// Call records one delivery to a Recorder.
type Call struct {
	Method string
	Event  event.Event
}

// Recorder is a Listener that remembers every call made to it, for use in
// tests.
type Recorder struct {
	mu    sync.Mutex // protects calls
	calls []Call
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(method string, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{method, e})
}

func (r *Recorder) FolderCreated(e event.FileEvent)         { r.record("FolderCreated", e) }
func (r *Recorder) FileCreated(e event.FileEvent)           { r.record("FileCreated", e) }
func (r *Recorder) Changed(e event.FileEvent)               { r.record("Changed", e) }
func (r *Recorder) Deleted(e event.FileEvent)               { r.record("Deleted", e) }
func (r *Recorder) Renamed(e event.RenameEvent)             { r.record("Renamed", e) }
func (r *Recorder) AttributeChanged(e event.AttributeEvent) { r.record("AttributeChanged", e) }

// Calls returns a copy of the calls received so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := make([]Call, len(r.calls))
	copy(c, r.calls)
	return c
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
