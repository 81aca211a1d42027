// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package resource models a hierarchy of files and folders that listeners can
// observe.  Changes are reported to the tree as events; the tree applies them
// to its structure and delivers them to the listeners of the affected nodes.
package resource

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/google/vfsnotify/internal/event"
	"github.com/google/vfsnotify/internal/listener"
	"github.com/google/vfsnotify/internal/pathseg"
)

var (
	ErrNotExist        = errors.New("resource does not exist")
	ErrNotDir          = errors.New("resource is not a folder")
	ErrRoot            = errors.New("operation not permitted on the root")
	ErrInvalidListener = errors.New("not a listener")
)

const defaultSegmenterCacheSize = 1024

// Tree is a hierarchy of Nodes rooted at "/".  Paths are split on "/" and
// empty segments are ignored, so "a//b/" and "/a/b" name the same node.
type Tree struct {
	mu   sync.RWMutex // protects the node structure below root
	root *Node

	segmentersMu       sync.Mutex // protects segmenters
	segmenters         *lru.Cache // memoized *pathseg.Segmenter by raw path
	segmenterCacheSize int

	isolateListeners bool
}

// Option configures a Tree.
type Option func(*Tree) error

// SegmenterCacheSize sets how many split paths the Tree remembers.
func SegmenterCacheSize(n int) Option {
	return func(t *Tree) error {
		if n <= 0 {
			return errors.Errorf("segmenter cache size must be positive, not %d", n)
		}
		t.segmenterCacheSize = n
		return nil
	}
}

// IsolateListeners makes the Tree recover and log panics from listeners, so
// that one faulty listener does not stop delivery to the others.
func IsolateListeners(t *Tree) error {
	t.isolateListeners = true
	return nil
}

// New creates a Tree holding only the root folder.
func New(options ...Option) (*Tree, error) {
	t := &Tree{
		root:               newNode("", true, nil),
		segmenterCacheSize: defaultSegmenterCacheSize,
	}
	if err := t.SetOption(options...); err != nil {
		return nil, err
	}
	t.segmenters = lru.New(t.segmenterCacheSize)
	return t, nil
}

// SetOption takes one or more option functions and applies them in order to Tree.
func (t *Tree) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option(t); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the root folder.
func (t *Tree) Root() *Node {
	return t.root
}

// segmenter returns the Segmenter for path, reusing one made earlier for the
// same string if it is still cached.
func (t *Tree) segmenter(path string) *pathseg.Segmenter {
	t.segmentersMu.Lock()
	defer t.segmentersMu.Unlock()
	if s, ok := t.segmenters.Get(path); ok {
		return s.(*pathseg.Segmenter)
	}
	s := pathseg.New(path)
	t.segmenters.Add(path, s)
	return s
}

// Lookup returns the node at path.  The path is walked one segment at a time
// and the walk stops at the first missing segment.
func (t *Tree) Lookup(path string) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookupLocked(path)
}

func (t *Tree) lookupLocked(path string) (*Node, error) {
	n := t.root
	it := t.segmenter(path).Enumerator()
	for it.HasNext() {
		name, err := it.Next()
		if err != nil {
			return nil, err
		}
		child, ok := n.children[name]
		if !ok {
			glog.V(2).Infof("lookup of %q failed at segment %d %q", path, it.Index()-1, name)
			return nil, errors.Wrapf(ErrNotExist, "lookup %q", path)
		}
		n = child
	}
	return n, nil
}

// Create adds a node at path, and any missing folders above it.  If the node
// already exists it is returned unchanged.
func (t *Tree) Create(path string, dir bool) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.createLocked(path, dir)
}

func (t *Tree) createLocked(path string, dir bool) (*Node, error) {
	names := t.segmenter(path).Segments()
	if len(names) == 0 {
		return t.root, nil
	}
	parent, err := t.mkdirAllLocked(path, names[:len(names)-1])
	if err != nil {
		return nil, err
	}
	name := names[len(names)-1]
	if n, ok := parent.children[name]; ok {
		return n, nil
	}
	n := newNode(name, dir, parent)
	parent.children[name] = n
	return n, nil
}

// mkdirAllLocked returns the folder named by names, creating any that are
// missing.  path is used for errors.  Nothing is created if a file sits on the
// way.
func (t *Tree) mkdirAllLocked(path string, names []string) (*Node, error) {
	n, i, err := t.findPrefixLocked(path, names)
	if err != nil {
		return nil, err
	}
	return mkdirsLocked(n, names[i:]), nil
}

// findPrefixLocked walks the folders in names that already exist.  It returns
// the deepest one and the index of the first name that is missing.
func (t *Tree) findPrefixLocked(path string, names []string) (*Node, int, error) {
	n := t.root
	for i, name := range names {
		child, ok := n.children[name]
		if !ok {
			return n, i, nil
		}
		if !child.dir {
			return nil, 0, errors.Wrapf(ErrNotDir, "create %q: %q", path, child.pathLocked())
		}
		n = child
	}
	return n, len(names), nil
}

// mkdirsLocked creates the chain of folders names below n, none of which may
// exist yet, and returns the last.
func mkdirsLocked(n *Node, names []string) *Node {
	for _, name := range names {
		child := newNode(name, true, n)
		n.children[name] = child
		n = child
	}
	return n
}

// Remove deletes the node at path and everything below it.
func (t *Tree) Remove(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.removeLocked(path)
	return err
}

func (t *Tree) removeLocked(path string) (*Node, error) {
	n, err := t.lookupLocked(path)
	if err != nil {
		return nil, err
	}
	if n == t.root {
		return nil, errors.Wrapf(ErrRoot, "remove %q", path)
	}
	delete(n.parent.children, n.name)
	return n, nil
}

// Rename moves the node at oldPath to newPath, replacing anything already
// there.  Missing folders above newPath are created.
func (t *Tree) Rename(oldPath, newPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _, err := t.renameLocked(oldPath, newPath)
	return err
}

// renameLocked returns the moved node and the folder it was moved out of.
func (t *Tree) renameLocked(oldPath, newPath string) (*Node, *Node, error) {
	n, err := t.lookupLocked(oldPath)
	if err != nil {
		return nil, nil, err
	}
	names := t.segmenter(newPath).Segments()
	if n == t.root || len(names) == 0 {
		return nil, nil, errors.Wrapf(ErrRoot, "rename %q to %q", oldPath, newPath)
	}
	dirs := names[:len(names)-1]
	existing, i, err := t.findPrefixLocked(newPath, dirs)
	if err != nil {
		return nil, nil, err
	}
	// Folders are created only once the move is known to be legal.
	for p := existing; p != nil; p = p.parent {
		if p == n {
			return nil, nil, errors.Errorf("rename %q to %q: cannot move a folder below itself", oldPath, newPath)
		}
	}
	newParent := mkdirsLocked(existing, dirs[i:])
	oldParent := n.parent
	name := names[len(names)-1]
	delete(oldParent.children, n.name)
	n.name = name
	n.parent = newParent
	newParent.children[name] = n
	return n, oldParent, nil
}

// AddListener registers l on the node at path.
func (t *Tree) AddListener(path string, l interface{}) error {
	n, err := t.Lookup(path)
	if err != nil {
		return err
	}
	if !n.AddListener(l) {
		return errors.Wrapf(ErrInvalidListener, "%T on %q", l, path)
	}
	return nil
}

// RemoveListener unregisters l from the node at path.
func (t *Tree) RemoveListener(path string, l listener.Listener) error {
	n, err := t.Lookup(path)
	if err != nil {
		return err
	}
	n.RemoveListener(l)
	return nil
}

// Notify applies e to the tree, then delivers it to the listeners of the
// node it names and of that node's folder.  A rename is also delivered to the
// folder the node was moved out of.  Delivery happens after the tree lock is
// released, so listeners may call back into the Tree.
func (t *Tree) Notify(ctx context.Context, e event.Event) error {
	_, span := trace.StartSpan(ctx, "Tree.Notify")
	defer span.End()
	if e == nil {
		return errors.New("notify: nil event")
	}
	span.AddAttributes(
		trace.StringAttribute("kind", e.Kind().String()),
		trace.StringAttribute("path", e.Pathname()))

	targets, err := t.apply(e)
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeNotFound, Message: err.Error()})
		return err
	}
	glog.V(2).Infof("delivering %s %q to %d registries", e.Kind(), e.Pathname(), len(targets))
	for _, r := range targets {
		t.dispatch(r, e)
	}
	return nil
}

func (t *Tree) dispatch(r *listener.Registry, e event.Event) {
	if !t.isolateListeners {
		listener.Dispatch(r, e)
		return
	}
	for _, err := range listener.DispatchIsolated(r, e) {
		glog.Warningf("delivery of %s %q: %s", e.Kind(), e.Pathname(), err)
	}
}

// apply changes the tree structure as e describes, and returns the
// registries that should receive e.
func (t *Tree) apply(e event.Event) ([]*listener.Registry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		n   *Node
		err error
	)
	switch ev := e.(type) {
	case event.FileEvent:
		switch ev.Kind() {
		case event.DataCreated, event.FolderCreated:
			n, err = t.createLocked(ev.Path, ev.Kind() == event.FolderCreated)
		case event.Changed:
			n, err = t.lookupLocked(ev.Path)
		case event.Deleted:
			n, err = t.removeLocked(ev.Path)
		default:
			return nil, errors.Errorf("notify: unsupported file event kind %s", ev.Kind())
		}
	case event.AttributeEvent:
		n, err = t.lookupLocked(ev.Path)
	case event.RenameEvent:
		var oldParent *Node
		n, oldParent, err = t.renameLocked(ev.OldPath, ev.Path)
		if err != nil {
			return nil, err
		}
		targets := []*listener.Registry{&n.listeners, &n.parent.listeners}
		if oldParent != n.parent {
			targets = append(targets, &oldParent.listeners)
		}
		return targets, nil
	default:
		return nil, errors.Errorf("notify: unsupported event %T", e)
	}
	if err != nil {
		return nil, err
	}
	targets := []*listener.Registry{&n.listeners}
	if n.parent != nil {
		targets = append(targets, &n.parent.listeners)
	}
	return targets, nil
}

// Walk calls fn for every node in the tree, folders before their contents and
// siblings in name order.  The tree is read-locked during the walk, so fn must
// not modify it.  Walk stops at the first error returned by fn.
func (t *Tree) Walk(fn func(path string, n *Node) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return walkLocked(t.root, fn)
}

func walkLocked(n *Node, fn func(string, *Node) error) error {
	if err := fn(n.pathLocked(), n); err != nil {
		return err
	}
	for _, c := range n.sortedChildrenLocked() {
		if err := walkLocked(c, fn); err != nil {
			return err
		}
	}
	return nil
}
