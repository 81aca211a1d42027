// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package event defines the change notifications delivered to listeners on a
// resource tree.
package event

import (
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies the operation that an Event describes.
type Kind int

const (
	_ Kind = iota
	DataCreated
	FolderCreated
	Changed
	Deleted
	Renamed
	AttributeChanged
)

var kindNames = map[Kind]string{
	DataCreated:      "DataCreated",
	FolderCreated:    "FolderCreated",
	Changed:          "Changed",
	Deleted:          "Deleted",
	Renamed:          "Renamed",
	AttributeChanged: "AttributeChanged",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is the closed set of notifications: FileEvent, RenameEvent and
// AttributeEvent.  No other package can implement it.
type Event interface {
	Kind() Kind
	Pathname() string

	isEvent()
}

// FileEvent is the payload for DataCreated, FolderCreated, Changed and
// Deleted.  Its kind is set by the constructors below; the zero FileEvent
// has no kind.
type FileEvent struct {
	op   Kind
	Path string
}

// NewFileEvent returns a FileEvent for path.  Renamed and AttributeChanged
// carry extra state and have their own constructors.
func NewFileEvent(op Kind, path string) (FileEvent, error) {
	switch op {
	case DataCreated, FolderCreated, Changed, Deleted:
		return FileEvent{op: op, Path: path}, nil
	}
	return FileEvent{}, errors.Errorf("event kind %s has no plain file payload", op)
}

// NewCreateEvent returns a FolderCreated event if dir is set, otherwise a
// DataCreated event.
func NewCreateEvent(path string, dir bool) FileEvent {
	if dir {
		return FileEvent{op: FolderCreated, Path: path}
	}
	return FileEvent{op: DataCreated, Path: path}
}

// NewChangeEvent returns a Changed event for path.
func NewChangeEvent(path string) FileEvent {
	return FileEvent{op: Changed, Path: path}
}

// NewDeleteEvent returns a Deleted event for path.
func NewDeleteEvent(path string) FileEvent {
	return FileEvent{op: Deleted, Path: path}
}

func (e FileEvent) Kind() Kind       { return e.op }
func (e FileEvent) Pathname() string { return e.Path }
func (FileEvent) isEvent()           {}

// Equal reports whether e and o have the same kind and path.
func (e FileEvent) Equal(o FileEvent) bool {
	return e.op == o.op && e.Path == o.Path
}

func (e FileEvent) String() string {
	return fmt.Sprintf("%s %q", e.op, e.Path)
}

// RenameEvent reports that the resource now at Path used to be at OldPath.
// OldName and OldExt split the old base name at its last dot.
type RenameEvent struct {
	FileEvent
	OldPath string
	OldName string
	OldExt  string
}

// NewRenameEvent returns a RenameEvent for a move from oldPath to path.
func NewRenameEvent(path, oldPath string) RenameEvent {
	name, ext := SplitExt(baseName(oldPath))
	return RenameEvent{
		FileEvent: FileEvent{op: Renamed, Path: path},
		OldPath:   oldPath,
		OldName:   name,
		OldExt:    ext,
	}
}

func (RenameEvent) Kind() Kind { return Renamed }

func (e RenameEvent) String() string {
	return fmt.Sprintf("%s %q from %q", Renamed, e.Path, e.OldPath)
}

// AttributeEvent reports that attribute Name on Path changed value.  Either
// value may be nil when the attribute was added or removed.
type AttributeEvent struct {
	FileEvent
	Name     string
	OldValue interface{}
	NewValue interface{}
}

// NewAttributeEvent returns an AttributeEvent for path.
func NewAttributeEvent(path, name string, oldValue, newValue interface{}) AttributeEvent {
	return AttributeEvent{
		FileEvent: FileEvent{op: AttributeChanged, Path: path},
		Name:      name,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
}

func (AttributeEvent) Kind() Kind { return AttributeChanged }

func (e AttributeEvent) String() string {
	return fmt.Sprintf("%s %q %s: %v -> %v", AttributeChanged, e.Path, e.Name, e.OldValue, e.NewValue)
}

// SplitExt splits a base name into name and extension, without the dot.  A
// leading dot does not start an extension, so ".profile" has none.
func SplitExt(base string) (name, ext string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base, ""
	}
	return base[:i], base[i+1:]
}

func baseName(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
