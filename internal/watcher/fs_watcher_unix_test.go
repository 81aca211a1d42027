// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/google/vfsnotify/internal/event"
	"github.com/google/vfsnotify/internal/listener"
	"github.com/google/vfsnotify/internal/testutil"
)

func TestFsWatcherPollModeChange(t *testing.T) {
	workdir := testutil.TestTempDir(t)
	logfile := filepath.Join(workdir, "log")
	f := testutil.TestOpenFile(t, logfile)
	testutil.FatalIfErr(t, f.Close())

	tr, rec := newPopulatedTree(t, workdir)
	w := newPollingWatcher(t, tr)
	testutil.FatalIfErr(t, w.Observe(workdir))

	testutil.FatalIfErr(t, unix.Chmod(logfile, 0o644))
	w.Poll()
	testutil.ExpectNoDiff(t, []listener.Call{
		{Method: "AttributeChanged", Event: event.NewAttributeEvent(logfile, "mode", os.FileMode(0o600), os.FileMode(0o644))},
	}, rec.Calls())
}

func TestFsWatcherObservePermissionDenied(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read any folder")
	}
	workdir := testutil.TestTempDir(t)
	private := filepath.Join(workdir, "private")
	testutil.TestMkdir(t, private)
	testutil.FatalIfErr(t, unix.Chmod(private, 0))
	t.Cleanup(func() { testutil.FatalIfErr(t, unix.Chmod(private, 0o700)) })

	tr, _ := newPopulatedTree(t, workdir)
	w := newPollingWatcher(t, tr)
	// An unreadable folder is still observed; its entries are found as they appear.
	testutil.FatalIfErr(t, w.Observe(private))
	if !w.IsWatching(private) {
		t.Errorf("not watching %q", private)
	}
}
