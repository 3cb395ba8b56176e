// seehuhn.de/go/pdfgraph - an object graph engine for PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package walker provides functionality to iterate over all objects which
// are reachable in a PDF object graph.
package walker

import (
	"iter"

	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfgraph"
)

// Source is a PDF object graph with a trailer dictionary.
// [*pdfgraph.Graph] implements this interface.
type Source interface {
	pdfgraph.Getter
	Trailer() pdfgraph.Dict
}

// A Walker iterates over the objects reachable from the trailer of a PDF
// file.
//
// The traversal starts at the document information dictionary, continues
// with the document catalog and finally visits the trailer dictionary
// itself.  Each indirect object is visited exactly once.
//
// Only the object graph is traversed.  Content streams are not parsed.
type Walker struct {
	src Source

	// Err holds the first error encountered during traversal.
	// The traversal stops immediately when an error is encountered.
	Err error
}

// New creates a new Walker for the graph src.
func New(src Source) *Walker {
	return &Walker{src: src}
}

// PreOrder returns an iterator over all reachable objects, where
// containers are visited before their contents.  For each object, the
// reference is yielded together with the object.  For direct objects,
// the reference is 0.
//
// The iterator cannot be used concurrently.
func (w *Walker) PreOrder() iter.Seq2[pdfgraph.Reference, pdfgraph.Object] {
	return func(yield func(pdfgraph.Reference, pdfgraph.Object) bool) {
		w.walk(yield, true)
	}
}

// PostOrder is like PreOrder, but visits the contents of containers
// before the containers themselves.
func (w *Walker) PostOrder() iter.Seq2[pdfgraph.Reference, pdfgraph.Object] {
	return func(yield func(pdfgraph.Reference, pdfgraph.Object) bool) {
		w.walk(yield, false)
	}
}

// IndirectObjects iterates over the reachable indirect objects, in
// pre-order.  Null objects are skipped.
func (w *Walker) IndirectObjects() iter.Seq2[pdfgraph.Reference, pdfgraph.Object] {
	return func(yield func(pdfgraph.Reference, pdfgraph.Object) bool) {
		for ref, obj := range w.PreOrder() {
			if ref == 0 || obj == nil {
				continue
			}
			if !yield(ref, obj) {
				return
			}
		}
	}
}

// Reachable returns the set of all indirect objects which can be reached
// from the trailer.
func Reachable(src Source) (map[pdfgraph.Reference]bool, error) {
	w := New(src)
	res := make(map[pdfgraph.Reference]bool)
	for ref := range w.IndirectObjects() {
		res[ref] = true
	}
	if w.Err != nil {
		return nil, w.Err
	}
	return res, nil
}

func (w *Walker) walk(yield func(pdfgraph.Reference, pdfgraph.Object) bool, preOrder bool) {
	w.Err = nil
	visited := make(map[pdfgraph.Reference]bool)

	trailer := w.src.Trailer()
	if !w.walkObject(trailer["Info"], yield, preOrder, visited) {
		return
	}
	if !w.walkObject(trailer["Root"], yield, preOrder, visited) {
		return
	}
	w.walkObject(trailer, yield, preOrder, visited)
}

func (w *Walker) walkObject(obj pdfgraph.Object, yield func(pdfgraph.Reference, pdfgraph.Object) bool, preOrder bool, visited map[pdfgraph.Reference]bool) bool {
	if obj == nil {
		return true
	}

	ref, isReference := obj.(pdfgraph.Reference)
	if isReference {
		if visited[ref] {
			return true
		}
		visited[ref] = true

		resolved, err := w.src.Get(ref)
		if err != nil {
			w.Err = err
			return false
		}
		obj = resolved
	}

	if preOrder && !yield(ref, obj) {
		return false
	}

	switch x := obj.(type) {
	case pdfgraph.Array:
		for _, elem := range x {
			if !w.walkObject(elem, yield, preOrder, visited) {
				return false
			}
		}
	case pdfgraph.Dict:
		if !w.walkDict(x, yield, preOrder, visited) {
			return false
		}
	case *pdfgraph.Stream:
		if !w.walkDict(x.Dict, yield, preOrder, visited) {
			return false
		}
	}

	if !preOrder && !yield(ref, obj) {
		return false
	}
	return true
}

func (w *Walker) walkDict(dict pdfgraph.Dict, yield func(pdfgraph.Reference, pdfgraph.Object) bool, preOrder bool, visited map[pdfgraph.Reference]bool) bool {
	keys := make([]pdfgraph.Name, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if !w.walkObject(dict[key], yield, preOrder, visited) {
			return false
		}
	}
	return true
}
