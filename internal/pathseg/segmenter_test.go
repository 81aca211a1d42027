// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package pathseg

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/vfsnotify/internal/testutil"
)

var segmentTests = []struct {
	name     string
	path     string
	segments []string
}{
	{"empty", "", []string{}},
	{"root", "/", []string{}},
	{"only delimiters", "////", []string{}},
	{"single", "a", []string{"a"}},
	{"absolute", "/a/b/c", []string{"a", "b", "c"}},
	{"relative", "a/b", []string{"a", "b"}},
	{"doubled and trailing", "/a//b/c/", []string{"a", "b", "c"}},
	{"leading and trailing", "/a//b/", []string{"a", "b"}},
	{"dots kept", "./a/../b", []string{".", "a", "..", "b"}},
	{"spaces kept", "/my docs/a file.txt", []string{"my docs", "a file.txt"}},
	{"unicode", "/über/日本", []string{"über", "日本"}},
}

func TestSegments(t *testing.T) {
	for _, tc := range segmentTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := New(tc.path)
			var got []string
			for i := 0; s.Has(i); i++ {
				seg, err := s.Get(i)
				testutil.FatalIfErr(t, err)
				got = append(got, seg)
			}
			testutil.ExpectNoDiff(t, tc.segments, got, testutil.EquateEmpty())
			testutil.ExpectNoDiff(t, tc.segments, s.Segments(), testutil.EquateEmpty())
			if s.Count() != len(tc.segments) {
				t.Errorf("Count() = %d, want %d", s.Count(), len(tc.segments))
			}
			if s.Original() != tc.path {
				t.Errorf("Original() = %q, want %q", s.Original(), tc.path)
			}
		})
	}
}

func TestGetPastEnd(t *testing.T) {
	s := New("/a//b/c/")
	if s.Has(3) {
		t.Error("Has(3) = true")
	}
	_, err := s.Get(3)
	if !IsNotFound(err) {
		t.Errorf("Get(3) error = %v, want segment not found", err)
	}
	if !strings.Contains(err.Error(), "/a//b/c/") {
		t.Errorf("Get(3) error %q does not name the path", err)
	}
	if _, err := s.Get(-1); !IsNotFound(err) {
		t.Errorf("Get(-1) error = %v, want segment not found", err)
	}
	if s.Has(-1) {
		t.Error("Has(-1) = true")
	}
	// Earlier segments are still there.
	seg, err := s.Get(2)
	testutil.FatalIfErr(t, err)
	if seg != "c" {
		t.Errorf("Get(2) = %q, want c", seg)
	}
}

func longPath(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("/seg")
	}
	return b.String()
}

func TestHasIsLazy(t *testing.T) {
	s := New(longPath(100))
	if s.State() != Unscanned {
		t.Errorf("State() = %s before any query", s.State())
	}
	if s.splits != 0 {
		t.Errorf("splits = %d before any query", s.splits)
	}

	if !s.Has(0) {
		t.Fatal("Has(0) = false")
	}
	if s.splits != 1 {
		t.Errorf("splits = %d after Has(0), want 1", s.splits)
	}
	if s.State() != PartiallyScanned {
		t.Errorf("State() = %s after Has(0)", s.State())
	}

	if !s.Has(9) {
		t.Fatal("Has(9) = false")
	}
	if s.splits != 10 {
		t.Errorf("splits = %d after Has(9), want 10", s.splits)
	}

	if s.Has(100) {
		t.Error("Has(100) = true on a 100 segment path")
	}
	if s.splits != 100 {
		t.Errorf("splits = %d after scanning to the end, want 100", s.splits)
	}
	if s.State() != FullyScanned {
		t.Errorf("State() = %s after scanning to the end", s.State())
	}
}

func TestGetIsMemoized(t *testing.T) {
	s := New("/a/b/c/d/e")
	first, err := s.Get(2)
	testutil.FatalIfErr(t, err)
	if s.splits != 3 {
		t.Errorf("splits = %d after Get(2), want 3", s.splits)
	}
	second, err := s.Get(2)
	testutil.FatalIfErr(t, err)
	if first != second || first != "c" {
		t.Errorf("Get(2) = %q then %q, want c both times", first, second)
	}
	if s.splits != 3 {
		t.Errorf("splits = %d after second Get(2), want 3", s.splits)
	}
	if _, err := s.Get(0); err != nil || s.splits != 3 {
		t.Errorf("Get(0) rescanned: err %v, splits %d", err, s.splits)
	}
}

func TestStateIsTerminal(t *testing.T) {
	s := New("/a/b/")
	if !s.Has(1) {
		t.Fatal("Has(1) = false")
	}
	// The trailing delimiter is consumed along with the last segment.
	if s.State() != FullyScanned {
		t.Errorf("State() = %s after reading the last segment", s.State())
	}
	splits := s.splits
	for i := 0; i < 3; i++ {
		if s.Has(5) {
			t.Error("Has(5) = true")
		}
		s.Count()
	}
	if s.splits != splits || s.State() != FullyScanned {
		t.Errorf("extension after close did work: splits %d -> %d, state %s", splits, s.splits, s.State())
	}
}

func TestEnumerator(t *testing.T) {
	s := New("/a//b/c/")
	e := s.Enumerator()
	var got []string
	for e.HasNext() {
		seg, err := e.Next()
		testutil.FatalIfErr(t, err)
		got = append(got, seg)
	}
	testutil.ExpectNoDiff(t, []string{"a", "b", "c"}, got)
	if e.Index() != 3 {
		t.Errorf("Index() = %d, want 3", e.Index())
	}
	if _, err := e.Next(); !IsNotFound(err) {
		t.Errorf("Next() past end error = %v, want segment not found", err)
	}
	if e.Index() != 3 {
		t.Errorf("failed Next moved the position to %d", e.Index())
	}
}

func TestEnumeratorsAreIndependent(t *testing.T) {
	s := New("/x/y/z")
	e1, e2 := s.Enumerator(), s.Enumerator()

	for e1.HasNext() {
		_, err := e1.Next()
		testutil.FatalIfErr(t, err)
	}
	if e1.HasNext() {
		t.Error("e1 not exhausted")
	}

	seg, err := e2.Next()
	testutil.FatalIfErr(t, err)
	if seg != "x" {
		t.Errorf("e2.Next() = %q after e1 was exhausted, want x", seg)
	}
	// e1's scan is shared, so e2 caused no further splitting.
	if s.splits != 3 {
		t.Errorf("splits = %d, want 3", s.splits)
	}

	// A fresh enumerator starts over.
	e3 := s.Enumerator()
	seg, err = e3.Next()
	testutil.FatalIfErr(t, err)
	if seg != "x" || e2.Index() != 1 {
		t.Errorf("e3.Next() = %q, e2.Index() = %d", seg, e2.Index())
	}
}

func TestConcurrentExtension(t *testing.T) {
	const n = 64
	s := New(longPath(n))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := s.Enumerator()
			count := 0
			for e.HasNext() {
				seg, err := e.Next()
				if err != nil {
					t.Error(err)
					return
				}
				if seg != "seg" {
					t.Errorf("segment %d = %q", count, seg)
				}
				count++
			}
			if count != n {
				t.Errorf("enumerated %d segments, want %d", count, n)
			}
		}()
	}
	wg.Wait()
	if s.splits != n {
		t.Errorf("splits = %d, want %d; a range was split twice", s.splits, n)
	}
}

func BenchmarkFirstSegment(b *testing.B) {
	p := longPath(1000)
	for i := 0; i < b.N; i++ {
		s := New(p)
		if !s.Has(0) {
			b.Fatal("Has(0) = false")
		}
	}
}
