// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package listener

import (
	"testing"

	"github.com/google/vfsnotify/internal/event"
)

func TestLoggerReceivesEveryKind(t *testing.T) {
	var r Registry
	if !r.Subscribe(Logger{Prefix: "test: "}) {
		t.Fatal("Logger rejected as a listener")
	}
	for _, e := range []event.Event{
		event.NewCreateEvent("/a", true),
		event.NewCreateEvent("/a/b", false),
		event.NewChangeEvent("/a/b"),
		event.NewAttributeEvent("/a/b", "mode", 0o600, 0o644),
		event.NewRenameEvent("/a/c", "/a/b"),
		event.NewDeleteEvent("/a/c"),
	} {
		Dispatch(&r, e)
	}
}
