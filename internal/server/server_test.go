// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/vfsnotify/internal/listener"
	"github.com/google/vfsnotify/internal/resource"
	"github.com/google/vfsnotify/internal/testutil"
	"github.com/google/vfsnotify/internal/watcher"
)

type testServer struct {
	*Server
	w      *watcher.FakeWatcher
	cancel context.CancelFunc
	errc   chan error
}

// startTestServer starts a Server on a free local port, serving a tree that
// holds paths.
func startTestServer(tb testing.TB, paths ...string) *testServer {
	tb.Helper()
	tree, err := resource.New()
	testutil.FatalIfErr(tb, err)
	for _, p := range paths {
		_, err := tree.Create(p, strings.HasSuffix(p, "/"))
		testutil.FatalIfErr(tb, err)
	}
	w := watcher.NewFakeWatcher(tree)
	ctx, cancel := context.WithCancel(context.Background())
	port := strconv.Itoa(testutil.FreePort(tb))
	s, err := New(ctx, tree, w,
		BindAddress("localhost", port),
		SetBuildInfo(BuildInfo{Version: "test"}),
		HTTPDebugEndpoints)
	if err != nil {
		cancel()
		tb.Fatal(err)
	}
	ts := &testServer{Server: s, w: w, cancel: cancel, errc: make(chan error, 1)}
	go func() {
		ts.errc <- s.Run()
	}()
	return ts
}

// stop cancels the server and waits for Run to return.
func (ts *testServer) stop(tb testing.TB) {
	tb.Helper()
	ts.cancel()
	ts.wait(tb)
}

func (ts *testServer) wait(tb testing.TB) {
	tb.Helper()
	select {
	case err := <-ts.errc:
		testutil.FatalIfErr(tb, err)
	case <-time.After(6 * time.Second):
		tb.Fatal("timeout waiting for shutdown")
	}
}

func (ts *testServer) get(tb testing.TB, path string) (int, string) {
	tb.Helper()
	var resp *http.Response
	ok, err := testutil.DoOrTimeout(func() (bool, error) {
		var gerr error
		resp, gerr = http.Get(fmt.Sprintf("http://%s%s", ts.Addr(), path))
		return gerr == nil, nil
	}, 5*time.Second, 10*time.Millisecond)
	testutil.FatalIfErr(tb, err)
	if !ok {
		tb.Fatalf("couldn't fetch %s", path)
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	testutil.FatalIfErr(tb, err)
	return resp.StatusCode, string(body)
}

func TestNewRequiresTree(t *testing.T) {
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Error("New without a tree succeeded")
	}
}

func TestServeWithoutBindAddress(t *testing.T) {
	tree, err := resource.New()
	testutil.FatalIfErr(t, err)
	s, err := New(context.Background(), tree, nil)
	testutil.FatalIfErr(t, err)
	if err := s.Serve(); err == nil {
		t.Error("Serve without a bind address succeeded")
	}
	if s.Addr() != "none" {
		t.Errorf("Addr() = %q, want none", s.Addr())
	}
}

func TestDuplicateBindAddress(t *testing.T) {
	tree, err := resource.New()
	testutil.FatalIfErr(t, err)
	port := strconv.Itoa(testutil.FreePort(t))
	s, err := New(context.Background(), tree, nil, BindAddress("localhost", port), BindAddress("localhost", port))
	if err == nil {
		s.Close(true)
		t.Fatal("second bind address accepted")
	}
}

func TestStatusPage(t *testing.T) {
	testutil.SkipIfShort(t)
	ts := startTestServer(t, "/var/log/", "/var/log/syslog")
	defer ts.stop(t)
	testutil.FatalIfErr(t, ts.tree.AddListener("/var/log", listener.NewRecorder()))

	code, body := ts.get(t, "/")
	if code != http.StatusOK {
		t.Fatalf("status page returned %d", code)
	}
	for _, want := range []string{"vfsnotify version test", "<td>/var/log</td>", "<td>/var/log/syslog</td>", "debug/vars"} {
		if !strings.Contains(body, want) {
			t.Errorf("status page missing %q:\n%s", want, body)
		}
	}

	code, _ = ts.get(t, "/nonexistent")
	if code != http.StatusNotFound {
		t.Errorf("unknown page returned %d, want %d", code, http.StatusNotFound)
	}
}

func TestMetricsPage(t *testing.T) {
	testutil.SkipIfShort(t)
	ts := startTestServer(t, "/tmp/")
	defer ts.stop(t)
	testutil.FatalIfErr(t, ts.w.Observe("/tmp"))
	testutil.FatalIfErr(t, ts.w.InjectCreate("/tmp/log", false))

	code, body := ts.get(t, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics page returned %d", code)
	}
	for _, want := range []string{"vfsnotify_build_info", "vfsnotify_dispatch_empty_total", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	mfs, err := ts.Gatherer().Gather()
	testutil.FatalIfErr(t, err)
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "vfsnotify_path_segments_split_total" {
			found = true
		}
	}
	if !found {
		t.Error("path segment counter not exported")
	}
}

func TestQuitQuitQuit(t *testing.T) {
	testutil.SkipIfShort(t)
	ts := startTestServer(t, "/tmp/")
	defer ts.cancel()
	testutil.FatalIfErr(t, ts.w.Observe("/tmp"))

	code, _ := ts.get(t, "/quitquitquit")
	if code != http.StatusMethodNotAllowed {
		t.Errorf("GET /quitquitquit returned %d, want %d", code, http.StatusMethodNotAllowed)
	}

	resp, err := http.Post(fmt.Sprintf("http://%s/quitquitquit", ts.Addr()), "text/plain", nil)
	testutil.FatalIfErr(t, err)
	resp.Body.Close()
	ts.wait(t)
	if ts.w.IsWatching("/tmp") {
		t.Error("watcher still open after quit")
	}
}
