// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package server serves the status, metrics and debugging pages of a running
// vfsnotify, and owns the shutdown of its watcher.
package server

import (
	"context"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"go.opencensus.io/zpages"

	"github.com/google/vfsnotify/internal/resource"
	"github.com/google/vfsnotify/internal/watcher"
)

// Server contains the state of the main vfsnotify program.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	tree   *resource.Tree  // tree receives the watcher's events
	w      watcher.Watcher // w is closed when the server shuts down

	reg *prometheus.Registry

	h        *http.Server
	listener net.Listener

	webquit   chan struct{} // Channel to signal shutdown from web UI
	closeQuit chan struct{} // Channel to signal shutdown from code
	closeOnce sync.Once     // Ensure shutdown happens only once

	bindAddress        string    // address to bind HTTP server
	bindUnixSocket     string    // path of the UNIX socket to bind HTTP server
	buildInfo          BuildInfo // go build information
	httpDebugEndpoints bool      // if set, serve /debug/pprof and /debug/vars
}

// New creates a Server that reports on tree and closes w at shutdown.
func New(ctx context.Context, tree *resource.Tree, w watcher.Watcher, options ...Option) (*Server, error) {
	if tree == nil {
		return nil, errors.New("can't create server without a resource tree")
	}
	s := &Server{
		tree:      tree,
		w:         w,
		webquit:   make(chan struct{}),
		closeQuit: make(chan struct{}),
		h:         &http.Server{},
		reg:       prometheus.NewRegistry(),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	expvarDescs := map[string]*prometheus.Desc{
		// internal/listener/dispatch.go
		"dispatch_total":        prometheus.NewDesc("dispatch_total", "number of events dispatched to a non-empty listener registry, by event kind", []string{"kind"}, nil),
		"dispatch_empty_total":  prometheus.NewDesc("dispatch_empty_total", "number of events dispatched to a registry with no listeners", nil, nil),
		"listener_panics_total": prometheus.NewDesc("listener_panics_total", "number of listener panics recovered by isolated dispatch", nil, nil),
		// internal/pathseg/segmenter.go
		"path_segments_split_total": prometheus.NewDesc("path_segments_split_total", "number of path segments extracted by segmenters", nil, nil),
		// internal/watcher/fs_watcher.go
		"fs_watcher_error_count":  prometheus.NewDesc("fs_watcher_error_count", "number of errors received from fsnotify", nil, nil),
		"fs_watcher_events_total": prometheus.NewDesc("fs_watcher_events_total", "number of events sent by the filesystem watcher, by event kind", []string{"kind"}, nil),
	}
	s.reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	// Prefix all expvar metrics with 'vfsnotify_'
	prometheus.WrapRegistererWithPrefix("vfsnotify_", s.reg).MustRegister(
		prometheus.NewExpvarCollector(expvarDescs))
	if err := s.SetOption(options...); err != nil {
		return nil, err
	}

	// Create vfsnotify_build_info metric.
	version.Branch = s.buildInfo.Branch
	version.Version = s.buildInfo.Version
	version.Revision = s.buildInfo.Revision
	s.reg.MustRegister(version.NewCollector("vfsnotify"))
	return s, nil
}

// SetOption takes one or more option functions and applies them in order to Server.
func (s *Server) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option.apply(s); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer returns the registry that backs /metrics.
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.reg
}

// Serve begins the webserver and awaits a shutdown instruction.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.Errorf("No bind address provided.")
	}
	mux := http.NewServeMux()
	mux.Handle("/", s)
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/quitquitquit", s.quitHandler)
	if s.httpDebugEndpoints {
		mux.Handle("/debug/vars", expvar.Handler())
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	zpages.Handle(mux, "/")
	s.h.Handler = mux

	errc := make(chan error, 1)
	go func() {
		if s.bindAddress != "" {
			glog.Infof("Listening on %s", s.listener.Addr())
		} else {
			glog.Infof("Listening on UNIX socket %s", s.bindUnixSocket)
		}

		err := s.h.Serve(s.listener)

		if err == http.ErrServerClosed {
			err = nil
		}
		errc <- err
	}()
	s.WaitForShutdown()
	return <-errc
}

func (s *Server) quitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Add("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fmt.Fprintf(w, "Exiting...")
	close(s.webquit)
}

// WaitForShutdown handles shutdown requests from the system or the UI.
func (s *Server) WaitForShutdown() {
	n := make(chan os.Signal, 1)
	signal.Notify(n, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(n)
	select {
	case <-s.ctx.Done():
		glog.Info("External shutdown, exiting...")
	case <-n:
		glog.Info("Received SIGTERM, exiting...")
	case <-s.webquit:
		glog.Info("Received Quit from HTTP, exiting...")
	case <-s.closeQuit:
		glog.Info("Received quit internally, exiting...")
	}
	if err := s.Close(false); err != nil {
		glog.Warning(err)
	}
}

// Close handles the graceful shutdown of this server, ensuring that it only
// occurs once.  If fast is true, then the http server is shutdown without
// waiting.
func (s *Server) Close(fast bool) error {
	var err error
	s.closeOnce.Do(func() {
		glog.Info("Shutdown requested.")
		close(s.closeQuit)
		// Ensure we're cancelling our child context just in case Close is
		// called outside context cancellation.
		s.cancel()
		if s.w != nil {
			if werr := s.w.Close(); werr != nil {
				err = errors.Wrap(werr, "watcher close failed")
			}
		}
		if s.h != nil {
			glog.Info("Shutting down http server")
			if fast {
				s.h.Close()
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if herr := s.h.Shutdown(ctx); herr != nil {
					glog.Error(herr)
				}
				cancel()
			}
		}
		glog.Info("END OF LINE")
	})
	return err
}

// Run serves until shutdown is requested.
func (s *Server) Run() error {
	return s.Serve()
}

// Addr returns the address the server is listening on, or "none".
func (s *Server) Addr() string {
	if s.listener == nil {
		return "none"
	}
	return s.listener.Addr().String()
}
