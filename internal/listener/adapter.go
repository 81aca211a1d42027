// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package listener

import "github.com/google/vfsnotify/internal/event"

// Adapter implements Listener with methods that do nothing.  Embed it to
// handle only some of the event kinds.
type Adapter struct{}

func (Adapter) FolderCreated(event.FileEvent)         {}
func (Adapter) FileCreated(event.FileEvent)           {}
func (Adapter) Changed(event.FileEvent)               {}
func (Adapter) Deleted(event.FileEvent)               {}
func (Adapter) Renamed(event.RenameEvent)             {}
func (Adapter) AttributeChanged(event.AttributeEvent) {}
