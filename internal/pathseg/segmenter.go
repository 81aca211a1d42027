// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package pathseg splits slash-delimited resource paths into segments
// lazily, scanning only as far into the path as callers have asked about.
package pathseg

import (
	"expvar"
	"sync"

	"github.com/pkg/errors"
)

// ErrSegmentNotFound is returned when a segment index is past the end of the
// path.
var ErrSegmentNotFound = errors.New("segment not found")

// IsNotFound indicates if err reports a segment index past the end of a path.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSegmentNotFound)
}

// splitTotal counts segments extracted by all Segmenters.
var splitTotal = expvar.NewInt("path_segments_split_total")

const delimiter = '/'

// State describes how much of the path a Segmenter has scanned.
type State int

const (
	Unscanned State = iota
	PartiallyScanned
	FullyScanned
)

func (s State) String() string {
	switch s {
	case Unscanned:
		return "Unscanned"
	case PartiallyScanned:
		return "PartiallyScanned"
	case FullyScanned:
		return "FullyScanned"
	}
	return "State(?)"
}

// Segmenter splits one path into its segments on demand, and remembers them.
// Empty segments are never produced: leading, trailing and repeated
// delimiters are skipped, so "/a//b/" has segments "a" and "b".
//
// A Segmenter is safe for concurrent use.
type Segmenter struct {
	path string

	mu       sync.Mutex // protects following fields
	segments []string   // segments extracted so far
	pos      int        // offset of the unscanned remainder of path
	closed   bool       // set once the remainder is exhausted
	splits   int        // number of segments extracted; for tests
}

// New returns a Segmenter for path.  No scanning is done until a segment is
// asked for.
func New(path string) *Segmenter {
	return &Segmenter{path: path}
}

// Original returns the path the Segmenter was created with.
func (s *Segmenter) Original() string {
	return s.path
}

// Has indicates if segment i exists.  It scans the path up to segment i and
// no further.
func (s *Segmenter) Has(i int) bool {
	if i < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extendLocked(i)
}

// Get returns segment i.  If the path has no segment i, the error satisfies
// IsNotFound.
func (s *Segmenter) Get(i int) (string, error) {
	if i >= 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.extendLocked(i) {
			return s.segments[i], nil
		}
	}
	return "", errors.Wrapf(ErrSegmentNotFound, "index %d in %q", i, s.path)
}

// Count scans the whole path and returns the number of segments.
func (s *Segmenter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanAllLocked()
	return len(s.segments)
}

// Segments scans the whole path and returns a copy of its segments.
func (s *Segmenter) Segments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanAllLocked()
	r := make([]string, len(s.segments))
	copy(r, s.segments)
	return r
}

// State reports how far scanning has progressed.
func (s *Segmenter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return FullyScanned
	case len(s.segments) == 0:
		return Unscanned
	}
	return PartiallyScanned
}

// Enumerator returns a new Enumerator positioned at the first segment.
func (s *Segmenter) Enumerator() *Enumerator {
	return &Enumerator{s: s}
}

// extendLocked scans until segment i is known or the path is exhausted, and
// indicates if segment i exists.  s.mu must be held.
func (s *Segmenter) extendLocked(i int) bool {
	for len(s.segments) <= i && !s.closed {
		s.splitLocked()
	}
	return i < len(s.segments)
}

func (s *Segmenter) scanAllLocked() {
	for !s.closed {
		s.splitLocked()
	}
}

// splitLocked extracts the next segment from the remainder, if any.  Trailing
// delimiters are consumed with the segment before them, so the Segmenter is
// closed as soon as the last segment is extracted.  s.mu must be held.
func (s *Segmenter) splitLocked() {
	s.skipDelimitersLocked()
	if s.closed {
		return
	}
	start := s.pos
	for s.pos < len(s.path) && s.path[s.pos] != delimiter {
		s.pos++
	}
	s.segments = append(s.segments, s.path[start:s.pos])
	s.splits++
	splitTotal.Add(1)
	s.skipDelimitersLocked()
}

func (s *Segmenter) skipDelimitersLocked() {
	for s.pos < len(s.path) && s.path[s.pos] == delimiter {
		s.pos++
	}
	if s.pos == len(s.path) {
		s.closed = true
	}
}
