// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"expvar"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/google/vfsnotify/internal/event"
	"github.com/google/vfsnotify/internal/waker"
)

var (
	errorCount = expvar.NewInt("fs_watcher_error_count")
	// eventCount counts events sent to the Notifier, by kind.
	eventCount = expvar.NewMap("fs_watcher_events_total")
)

const (
	defaultPollInterval   = 250 * time.Millisecond
	defaultRenameDeadline = 100 * time.Millisecond
)

// FsWatcher implements a Watcher for watching real filesystems.  Changes are
// picked up from fsnotify, and from polling the observed paths if a poll
// Waker is given.
type FsWatcher struct {
	n   Notifier
	ctx context.Context

	watcher         *fsnotify.Watcher
	disableFsnotify bool
	recursive       bool
	pollWaker       waker.Waker

	mu            sync.Mutex             // protects following fields
	watched       map[string]struct{}    // observed paths
	seen          map[string]os.FileInfo // last known state of observed paths and their entries
	pendingRename string                 // source of a rename not yet matched to its Create
	renameTimer   *time.Timer            // flushes pendingRename if no Create arrives
	renameSeq     uint64                 // identifies the rename renameTimer was armed for

	renameDeadline time.Duration

	stopTicks  chan struct{} // Channel to notify ticker to stop.
	ticksDone  chan struct{} // Channel to notify when the ticks handler is done.
	eventsDone chan struct{} // Channel to notify when the events handler is done.

	closeOnce sync.Once
}

// Option configures an FsWatcher.
type Option func(*FsWatcher) error

// PollWaker sets the Waker that triggers each poll of the observed paths.
func PollWaker(wk waker.Waker) Option {
	return func(w *FsWatcher) error {
		w.pollWaker = wk
		return nil
	}
}

// DisableFsnotify makes the FsWatcher rely on polling alone.
func DisableFsnotify(w *FsWatcher) error {
	w.disableFsnotify = true
	return nil
}

// RenameDeadline sets how long a rename source waits for the Create that
// completes it before it is reported as deleted.
func RenameDeadline(d time.Duration) Option {
	return func(w *FsWatcher) error {
		if d <= 0 {
			return errors.Errorf("rename deadline must be positive, got %s", d)
		}
		w.renameDeadline = d
		return nil
	}
}

// Recursive makes the FsWatcher observe the folders below each observed
// folder, including ones created later.
func Recursive(w *FsWatcher) error {
	w.recursive = true
	return nil
}

// New returns a new FsWatcher that reports to n, or returns an error.
func New(ctx context.Context, n Notifier, options ...Option) (*FsWatcher, error) {
	if n == nil {
		return nil, errors.New("can't create watcher without a notifier")
	}
	w := &FsWatcher{
		n:       n,
		ctx:     ctx,
		watched: make(map[string]struct{}),
		seen:    make(map[string]os.FileInfo),

		renameDeadline: defaultRenameDeadline,
	}
	if err := w.SetOption(options...); err != nil {
		return nil, err
	}
	if !w.disableFsnotify {
		f, err := fsnotify.NewWatcher()
		if err != nil {
			glog.Warning(err)
		} else {
			w.watcher = f
		}
	}
	if w.watcher == nil && w.pollWaker == nil {
		glog.Infof("fsnotify disabled and no poll waker specified; defaulting to %s poll", defaultPollInterval)
		w.pollWaker = waker.NewTimed(ctx, defaultPollInterval)
	}
	if w.pollWaker != nil {
		w.stopTicks = make(chan struct{})
		w.ticksDone = make(chan struct{})
		go w.runTicks()
	}
	if w.watcher != nil {
		w.eventsDone = make(chan struct{})
		go w.runEvents()
	}
	return w, nil
}

// SetOption takes one or more option functions and applies them in order to FsWatcher.
func (w *FsWatcher) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option(w); err != nil {
			return err
		}
	}
	return nil
}

func (w *FsWatcher) send(ctx context.Context, e event.Event) {
	eventCount.Add(e.Kind().String(), 1)
	if err := w.n.Notify(ctx, e); err != nil {
		glog.V(1).Infof("Notify %s %q: %s", e.Kind(), e.Pathname(), err)
	}
}

// sendAll sends events in order, observing new folders when recursive.
func (w *FsWatcher) sendAll(ctx context.Context, events []event.Event) {
	for _, e := range events {
		w.send(ctx, e)
		if !w.recursive {
			continue
		}
		switch e.Kind() {
		case event.FolderCreated, event.Renamed:
			if fi, err := os.Lstat(e.Pathname()); err != nil || !fi.IsDir() {
				continue
			}
			if err := w.Observe(e.Pathname()); err != nil {
				glog.V(1).Info(err)
			}
		}
	}
}

func (w *FsWatcher) runTicks() {
	defer close(w.ticksDone)
	for {
		select {
		case <-w.pollWaker.Wake():
			w.Poll()
		case <-w.stopTicks:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

// Poll stats every observed path and reports the changes found since the
// last look.  fsnotify does not report modification of a folder itself, nor
// anything on filesystems that don't support it.
func (w *FsWatcher) Poll() {
	ctx, span := trace.StartSpan(w.ctx, "FsWatcher.Poll")
	defer span.End()
	w.sendAll(ctx, w.pollEvents())
}

func (w *FsWatcher) pollEvents() []event.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.flushPendingLocked()
	paths := make([]string, 0, len(w.watched))
	for p := range w.watched {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		glog.V(2).Infof("stat %q", p)
		fi, err := os.Lstat(p)
		if err != nil {
			if os.IsNotExist(err) {
				out = append(out, w.forgetLocked(p)...)
			} else {
				glog.V(1).Info(err)
			}
			continue
		}
		if fi.IsDir() {
			out = append(out, w.pollDirectoryLocked(p)...)
		}
		out = append(out, w.compareLocked(p, fi)...)
	}
	return out
}

// pollDirectoryLocked compares the entries of dir with what was seen last
// time.  w.mu must be locked when called.
func (w *FsWatcher) pollDirectoryLocked(dir string) []event.Event {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		glog.V(1).Info(err)
		return nil
	}
	var out []event.Event
	present := make(map[string]struct{}, len(entries))
	for _, fi := range entries {
		p := filepath.Join(dir, fi.Name())
		present[p] = struct{}{}
		out = append(out, w.compareLocked(p, fi)...)
	}
	var gone []string
	for p := range w.seen {
		if _, ok := present[p]; !ok && filepath.Dir(p) == dir {
			gone = append(gone, p)
		}
	}
	sort.Strings(gone)
	for _, p := range gone {
		out = append(out, w.forgetLocked(p)...)
	}
	return out
}

// compareLocked records fi as the state of path and returns the events that
// describe the change from its previous state.  w.mu must be locked when
// called.
func (w *FsWatcher) compareLocked(path string, fi os.FileInfo) []event.Event {
	old, ok := w.seen[path]
	w.seen[path] = fi
	if !ok {
		glog.V(2).Infof("sending create for %s", path)
		return []event.Event{createEvent(path, fi)}
	}
	var out []event.Event
	if old.Mode() != fi.Mode() {
		glog.V(2).Infof("sending mode change for %s", path)
		out = append(out, event.NewAttributeEvent(path, "mode", old.Mode(), fi.Mode()))
	}
	if !fi.IsDir() && fi.ModTime().After(old.ModTime()) {
		glog.V(2).Infof("sending update for %s", path)
		out = append(out, event.NewChangeEvent(path))
	}
	return out
}

// forgetLocked drops path and returns a Deleted event if it had been seen.
// w.mu must be locked when called.
func (w *FsWatcher) forgetLocked(path string) []event.Event {
	_, ok := w.seen[path]
	delete(w.seen, path)
	delete(w.watched, path)
	if !ok {
		return nil
	}
	return []event.Event{event.NewDeleteEvent(path)}
}

// flushPendingLocked reports an unmatched rename source as deleted.  w.mu
// must be locked when called.
func (w *FsWatcher) flushPendingLocked() []event.Event {
	if w.pendingRename == "" {
		return nil
	}
	p := w.pendingRename
	w.clearPendingLocked()
	glog.V(2).Infof("rename of %s has no matching create; sending delete", p)
	return w.forgetLocked(p)
}

// holdRenameLocked remembers path as the source of a rename and arms a timer
// that reports it deleted if nothing claims it by the deadline.  w.mu must be
// locked when called.
func (w *FsWatcher) holdRenameLocked(path string) {
	w.pendingRename = path
	w.renameSeq++
	seq := w.renameSeq
	w.renameTimer = time.AfterFunc(w.renameDeadline, func() { w.expireRename(seq) })
}

// clearPendingLocked drops the pending rename and its timer.  w.mu must be
// locked when called.
func (w *FsWatcher) clearPendingLocked() {
	w.pendingRename = ""
	if w.renameTimer != nil {
		w.renameTimer.Stop()
		w.renameTimer = nil
	}
}

// expireRename flushes the rename armed as seq, unless it was already matched
// or flushed by another event.
func (w *FsWatcher) expireRename(seq uint64) {
	w.mu.Lock()
	if seq != w.renameSeq || w.pendingRename == "" {
		w.mu.Unlock()
		return
	}
	out := w.flushPendingLocked()
	w.mu.Unlock()
	ctx, span := trace.StartSpan(w.ctx, "FsWatcher.expireRename")
	defer span.End()
	w.sendAll(ctx, out)
}

func createEvent(path string, fi os.FileInfo) event.Event {
	if fi.IsDir() {
		return event.NewCreateEvent(path, true)
	}
	return event.NewCreateEvent(path, false)
}

// runEvents assumes that w.watcher is not nil
func (w *FsWatcher) runEvents() {
	defer close(w.eventsDone)

	// Suck out errors and dump them to the error log.
	go func() {
		for err := range w.watcher.Errors {
			errorCount.Add(1)
			glog.Errorf("fsnotify error: %s", err)
		}
	}()

	for e := range w.watcher.Events {
		glog.V(2).Infof("watcher event %v", e)
		ctx, span := trace.StartSpan(w.ctx, "FsWatcher.handleEvent")
		w.sendAll(ctx, w.translate(e))
		span.End()
	}
	glog.Infof("Shutting down fs watcher.")
}

// translate converts one fsnotify event into resource events.  A Rename is
// held back until the next event or the rename deadline: a Create in the same
// folder turns the pair into one Renamed event, anything else reports the
// source deleted.
func (w *FsWatcher) translate(e fsnotify.Event) []event.Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.Op&fsnotify.Create == fsnotify.Create && w.pendingRename != "" &&
		filepath.Dir(w.pendingRename) == filepath.Dir(e.Name) {
		old := w.pendingRename
		w.clearPendingLocked()
		delete(w.seen, old)
		if fi, err := os.Lstat(e.Name); err == nil {
			w.seen[e.Name] = fi
		}
		return []event.Event{event.NewRenameEvent(e.Name, old)}
	}

	out := w.flushPendingLocked()
	switch {
	case e.Op&fsnotify.Create == fsnotify.Create:
		fi, err := os.Lstat(e.Name)
		if err != nil {
			glog.V(1).Info(err)
			return out
		}
		w.seen[e.Name] = fi
		out = append(out, createEvent(e.Name, fi))
	case e.Op&fsnotify.Write == fsnotify.Write:
		if fi, err := os.Lstat(e.Name); err == nil {
			w.seen[e.Name] = fi
		}
		out = append(out, event.NewChangeEvent(e.Name))
	case e.Op&fsnotify.Remove == fsnotify.Remove:
		delete(w.seen, e.Name)
		delete(w.watched, e.Name)
		out = append(out, event.NewDeleteEvent(e.Name))
	case e.Op&fsnotify.Rename == fsnotify.Rename:
		w.holdRenameLocked(e.Name)
	case e.Op&fsnotify.Chmod == fsnotify.Chmod:
		fi, err := os.Lstat(e.Name)
		if err != nil {
			glog.V(1).Info(err)
			return out
		}
		old := w.seen[e.Name]
		w.seen[e.Name] = fi
		out = append(out, attributeEvent(e.Name, old, fi))
	default:
		glog.Warningf("unknown op type %v", e.Op)
	}
	return out
}

// attributeEvent describes a metadata change on path.  The mode is reported
// if it changed or was not known, otherwise the modification time.
func attributeEvent(path string, old, fi os.FileInfo) event.Event {
	if old == nil {
		return event.NewAttributeEvent(path, "mode", nil, fi.Mode())
	}
	if old.Mode() != fi.Mode() {
		return event.NewAttributeEvent(path, "mode", old.Mode(), fi.Mode())
	}
	return event.NewAttributeEvent(path, "mtime", old.ModTime(), fi.ModTime())
}

// Close shuts down the FsWatcher.  It is safe to call this from multiple clients.
func (w *FsWatcher) Close() (err error) {
	w.closeOnce.Do(func() {
		if w.watcher != nil {
			err = w.watcher.Close()
			<-w.eventsDone
		}
		if w.pollWaker != nil {
			close(w.stopTicks)
			<-w.ticksDone
		}
		w.mu.Lock()
		pending := w.flushPendingLocked()
		w.mu.Unlock()
		w.sendAll(context.Background(), pending)
		glog.Info("Closed fs watcher")
	})
	return err
}

// Observe adds a path to the list of watched items.  Events on the path, and
// on the entries of a folder, are sent to the Notifier.
func (w *FsWatcher) Observe(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolutepath of %q", path)
	}
	fi, err := os.Lstat(absPath)
	if err != nil {
		return errors.Wrapf(err, "Failed to observe %q", absPath)
	}
	if err := w.addWatch(absPath); err != nil {
		return err
	}
	w.mu.Lock()
	w.watched[absPath] = struct{}{}
	w.seen[absPath] = fi
	w.mu.Unlock()
	if !fi.IsDir() {
		return nil
	}

	entries, err := ioutil.ReadDir(absPath)
	if err != nil {
		glog.V(1).Infof("Can't list %q, entries will be reported as they appear: %s", absPath, err)
		return nil
	}
	w.mu.Lock()
	for _, e := range entries {
		p := filepath.Join(absPath, e.Name())
		if _, ok := w.seen[p]; !ok {
			w.seen[p] = e
		}
	}
	w.mu.Unlock()
	if w.recursive {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if err := w.Observe(filepath.Join(absPath, e.Name())); err != nil {
				glog.V(1).Info(err)
			}
		}
	}
	return nil
}

func (w *FsWatcher) addWatch(absPath string) error {
	glog.V(2).Infof("Adding a watch on resolved path %q", absPath)
	if w.watcher == nil {
		return nil
	}
	if err := w.watcher.Add(absPath); err != nil {
		if os.IsPermission(err) {
			glog.V(2).Infof("Skipping permission denied error on adding a watch.")
			return nil
		}
		return errors.Wrapf(err, "Failed to create a new watch on %q", absPath)
	}
	return nil
}

// Unobserve stops watching path.
func (w *FsWatcher) Unobserve(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to lookup absolutepath of %q", path)
	}
	w.mu.Lock()
	_, ok := w.watched[absPath]
	delete(w.watched, absPath)
	w.mu.Unlock()
	if !ok || w.watcher == nil {
		return nil
	}
	if err := w.watcher.Remove(absPath); err != nil {
		return errors.Wrapf(err, "Failed to remove watch on %q", absPath)
	}
	return nil
}

// IsWatching indicates if the path is being watched. It includes both
// filenames and directories.
func (w *FsWatcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		glog.V(2).Infof("Couldn't resolve path %q: %s", absPath, err)
		return false
	}
	w.mu.Lock()
	_, ok := w.watched[absPath]
	w.mu.Unlock()
	return ok
}
