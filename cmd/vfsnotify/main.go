// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"go.opencensus.io/trace"

	"github.com/google/vfsnotify/internal/listener"
	"github.com/google/vfsnotify/internal/resource"
	"github.com/google/vfsnotify/internal/server"
	"github.com/google/vfsnotify/internal/waker"
	"github.com/google/vfsnotify/internal/watcher"
)

type seqStringFlag []string

func (f *seqStringFlag) String() string {
	return fmt.Sprint(*f)
}

func (f *seqStringFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		*f = append(*f, v)
	}
	return nil
}

var paths seqStringFlag

var (
	port       = flag.String("port", "3904", "HTTP port to listen on.")
	address    = flag.String("address", "", "Host or IP address on which to bind HTTP listener")
	unixSocket = flag.String("unix_socket", "", "UNIX Socket to listen on")

	version = flag.Bool("version", false, "Print vfsnotify version information.")

	// Watcher behaviour flags.
	pollInterval     = flag.Duration("poll_interval", 0, "Set the interval to poll watched paths for changes; zero relies on fsnotify alone, falling back to a 250ms poll if fsnotify is unavailable.")
	renameDeadline   = flag.Duration("rename_deadline", 100*time.Millisecond, "How long a renamed path waits for the matching create before it is reported deleted.")
	disableFsnotify  = flag.Bool("disable_fsnotify", false, "Poll watched paths instead of using fsnotify.  Requires --poll_interval.")
	recursive        = flag.Bool("recursive", true, "Also watch the folders below each watched folder, including ones created later.")
	isolateListeners = flag.Bool("isolate_listeners", true, "Recover from listener panics and continue delivery to the remaining listeners.")
	segmenterCache   = flag.Int("segmenter_cache_size", 1024, "Number of path segmenters retained for reuse by the resource tree.")

	// Debugging flags.
	blockProfileRate     = flag.Int("block_profile_rate", 0, "Nanoseconds of block time before goroutine blocking events reported. 0 turns off.  See https://golang.org/pkg/runtime/#SetBlockProfileRate")
	mutexProfileFraction = flag.Int("mutex_profile_fraction", 0, "Fraction of mutex contention events reported.  0 turns off.  See http://golang.org/pkg/runtime/#SetMutexProfileFraction")
	httpDebugEndpoints   = flag.Bool("http_debugging_endpoint", true, "Enable debugging endpoints (/debug/*).")

	// Tracing.
	jaegerEndpoint    = flag.String("jaeger_endpoint", "", "If set, collector endpoint URL of jaeger thrift service")
	traceSamplePeriod = flag.Int("trace_sample_period", 0, "Sample period for traces.  If non-zero, every nth trace will be sampled.")
)

func init() {
	flag.Var(&paths, "watch", "List of files or folders to watch, separated by commas.  This flag may be specified multiple times.")
}

var (
	// Branch as well as Version and Revision identifies where in the git
	// history the build came from, as supplied by the linker when compiled
	// with `make'.  The defaults here indicate that the user did not use
	// `make' as instructed.
	Branch   = "invalid:-use-make-to-build"
	Version  = "invalid:-use-make-to-build"
	Revision = "invalid:-use-make-to-build"
)

func main() {
	buildInfo := server.BuildInfo{
		Branch:   Branch,
		Version:  Version,
		Revision: Revision,
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", buildInfo.String())
		fmt.Fprintf(os.Stderr, "\nUsage:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *version {
		fmt.Println(buildInfo.String())
		os.Exit(0)
	}
	glog.Info(buildInfo.String())
	glog.Infof("Commandline: %q", os.Args)
	if len(flag.Args()) > 0 {
		glog.Exitf("Too many extra arguments specified: %q\n(the watch flag can be repeated, or the paths separated by commas.)", flag.Args())
	}
	if len(paths) == 0 {
		glog.Exitf("vfsnotify requires the paths to watch; please use the flag -watch one or more times to specify them.")
	}
	if *disableFsnotify && *pollInterval <= 0 {
		glog.Exitf("-disable_fsnotify requires a positive -poll_interval.")
	}
	if *blockProfileRate > 0 {
		glog.Infof("Setting block profile rate to %d", *blockProfileRate)
		runtime.SetBlockProfileRate(*blockProfileRate)
	}
	if *mutexProfileFraction > 0 {
		glog.Infof("Setting mutex profile fraction to %d", *mutexProfileFraction)
		runtime.SetMutexProfileFraction(*mutexProfileFraction)
	}
	if *traceSamplePeriod > 0 {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(1 / float64(*traceSamplePeriod))})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigint
		glog.Infof("Received %+v, exiting...", sig)
		cancel()
	}()

	treeOpts := []resource.Option{resource.SegmenterCacheSize(*segmenterCache)}
	if *isolateListeners {
		treeOpts = append(treeOpts, resource.IsolateListeners)
	}
	tree, err := resource.New(treeOpts...)
	if err != nil {
		glog.Exit(err)
	}

	wOpts := []watcher.Option{watcher.RenameDeadline(*renameDeadline)}
	if *pollInterval > 0 {
		wOpts = append(wOpts, watcher.PollWaker(waker.NewTimed(ctx, *pollInterval)))
	}
	if *disableFsnotify {
		wOpts = append(wOpts, watcher.DisableFsnotify)
	}
	if *recursive {
		wOpts = append(wOpts, watcher.Recursive)
	}
	w, err := watcher.New(ctx, tree, wOpts...)
	if err != nil {
		glog.Exit(err)
	}

	for _, p := range paths {
		p, err := filepath.Abs(p)
		if err != nil {
			glog.Exit(err)
		}
		if err := tree.Populate(p); err != nil {
			glog.Exit(err)
		}
		if err := tree.AddListener(p, listener.Logger{Prefix: p + ": "}); err != nil {
			glog.Exit(err)
		}
		if err := w.Observe(p); err != nil {
			glog.Exit(err)
		}
	}

	opts := []server.Option{
		server.SetBuildInfo(buildInfo),
	}
	if *unixSocket == "" {
		opts = append(opts, server.BindAddress(*address, *port))
	} else {
		opts = append(opts, server.BindUnixSocket(*unixSocket))
	}
	if *httpDebugEndpoints {
		opts = append(opts, server.HTTPDebugEndpoints)
	}
	if *jaegerEndpoint != "" {
		opts = append(opts, server.JaegerReporter(*jaegerEndpoint))
	}
	s, err := server.New(ctx, tree, w, opts...)
	if err != nil {
		glog.Error(err)
		cancel()
		os.Exit(1) //nolint:gocritic // false positive
	}
	if err := s.Run(); err != nil {
		glog.Error(err)
		cancel()
		os.Exit(1) //nolint:gocritic // false positive
	}
}
