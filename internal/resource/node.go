// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package resource

import (
	"sort"

	"github.com/google/vfsnotify/internal/listener"
)

// Node is one file or folder in a Tree.  Its structure is guarded by the
// Tree's lock; its listeners have their own.
type Node struct {
	name     string
	dir      bool
	parent   *Node
	children map[string]*Node

	listeners listener.Registry
}

func newNode(name string, dir bool, parent *Node) *Node {
	n := &Node{name: name, dir: dir, parent: parent}
	if dir {
		n.children = make(map[string]*Node)
	}
	return n
}

// Name returns the last segment of the node's path.  The root's name is
// empty.
func (n *Node) Name() string {
	return n.name
}

// IsDir indicates if the node is a folder.
func (n *Node) IsDir() bool {
	return n.dir
}

// AddListener registers l for events on this node.  It returns false if l is
// not a listener.Listener.
func (n *Node) AddListener(l interface{}) bool {
	return n.listeners.Subscribe(l)
}

// RemoveListener unregisters one registration of l.
func (n *Node) RemoveListener(l listener.Listener) {
	n.listeners.Unsubscribe(l)
}

// HasListeners indicates if any listener is registered on this node.
func (n *Node) HasListeners() bool {
	return n.listeners.HasSubscribers()
}

// ListenerCount returns the number of listener registrations on this node.
func (n *Node) ListenerCount() int {
	return n.listeners.Len()
}

// pathLocked returns the absolute path of n.  The tree lock must be held.
func (n *Node) pathLocked() string {
	if n.parent == nil {
		return "/"
	}
	var names []string
	for p := n; p.parent != nil; p = p.parent {
		names = append(names, p.name)
	}
	b := make([]byte, 0, 64)
	for i := len(names) - 1; i >= 0; i-- {
		b = append(b, '/')
		b = append(b, names[i]...)
	}
	return string(b)
}

// sortedChildrenLocked returns the children of n ordered by name.  The tree
// lock must be held.
func (n *Node) sortedChildrenLocked() []*Node {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	r := make([]*Node, len(names))
	for i, name := range names {
		r[i] = n.children[name]
	}
	return r
}
