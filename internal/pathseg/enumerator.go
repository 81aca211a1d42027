// Copyright 2016 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package pathseg

// Enumerator walks the segments of a Segmenter once, front to back.  Many
// Enumerators may share one Segmenter; each keeps its own position, and
// segments scanned on behalf of one are reused by the others.
//
// An Enumerator is not safe for concurrent use; give each goroutine its own.
type Enumerator struct {
	s   *Segmenter
	pos int
}

// HasNext indicates if another segment follows.
func (e *Enumerator) HasNext() bool {
	return e.s.Has(e.pos)
}

// Next returns the next segment and advances past it.  Once the segments are
// exhausted the error satisfies IsNotFound and the position does not move.
func (e *Enumerator) Next() (string, error) {
	seg, err := e.s.Get(e.pos)
	if err != nil {
		return "", err
	}
	e.pos++
	return seg, nil
}

// Index returns the index of the segment Next will return.
func (e *Enumerator) Index() int {
	return e.pos
}
