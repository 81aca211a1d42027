// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package listener

import (
	"github.com/golang/glog"

	"github.com/google/vfsnotify/internal/event"
)

// Logger is a Listener that writes every event it receives to the INFO log.
type Logger struct {
	// Prefix is prepended to each log line.
	Prefix string
}

func (l Logger) log(e event.Event) {
	glog.Infof("%s%s", l.Prefix, e)
}

func (l Logger) FolderCreated(e event.FileEvent)         { l.log(e) }
func (l Logger) FileCreated(e event.FileEvent)           { l.log(e) }
func (l Logger) Changed(e event.FileEvent)               { l.log(e) }
func (l Logger) Deleted(e event.FileEvent)               { l.log(e) }
func (l Logger) Renamed(e event.RenameEvent)             { l.log(e) }
func (l Logger) AttributeChanged(e event.AttributeEvent) { l.log(e) }
