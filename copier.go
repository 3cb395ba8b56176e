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

package pdfgraph

import "bytes"

// A Copier copies objects from one graph to another.  The Copier keeps
// track of the objects that have already been copied and ensures that each
// object is copied only once, so that objects shared in the source are also
// shared in the destination.
//
// Indirect objects are allocated in the destination graph as needed, and
// references are translated accordingly.  The copies never share memory
// with the source objects.
type Copier struct {
	trans map[Reference]Reference
	src   Getter
	dst   *Graph

	// pending lists the objects allocated by the current top-level call
	// to CopyReference.  They are freed again if the copy fails.
	pending []Reference
	depth   int
}

// NewCopier creates a new Copier.
func NewCopier(dst *Graph, src Getter) *Copier {
	c := &Copier{
		trans: make(map[Reference]Reference),
		src:   src,
		dst:   dst,
	}
	return c
}

// CopyObject copies the indirect object ref, together with all objects
// reachable from it, from src to dst.  The reference of the copy in dst is
// returned.
func CopyObject(dst *Graph, src Getter, ref Reference) (Reference, error) {
	return NewCopier(dst, src).CopyReference(ref)
}

// Copy copies a direct object from the source graph to the destination
// graph, recursively.  References inside obj are copied using
// [Copier.CopyReference].
//
// The returned object has the same type as the input object.
func (c *Copier) Copy(obj Object) (Object, error) {
	switch x := obj.(type) {
	case Dict:
		return c.CopyDict(x)
	case Array:
		return c.CopyArray(x)
	case *Stream:
		return c.copyStream(x)
	case Reference:
		return c.CopyReference(x)
	case String:
		return String(bytes.Clone(x)), nil
	default:
		return obj, nil
	}
}

// CopyDict copies a dictionary from the source graph to the destination
// graph.
func (c *Copier) CopyDict(obj Dict) (Dict, error) {
	if obj == nil {
		return nil, nil
	}
	res := make(Dict, len(obj))
	for key, val := range obj {
		repl, err := c.Copy(val)
		if err != nil {
			return nil, err
		}
		res[key] = repl
	}
	return res, nil
}

// CopyArray copies an array from the source graph to the destination graph.
func (c *Copier) CopyArray(obj Array) (Array, error) {
	if obj == nil {
		return nil, nil
	}
	res := make(Array, len(obj))
	for i, val := range obj {
		repl, err := c.Copy(val)
		if err != nil {
			return nil, err
		}
		res[i] = repl
	}
	return res, nil
}

func (c *Copier) copyStream(x *Stream) (*Stream, error) {
	dict, err := c.CopyDict(x.Dict)
	if err != nil {
		return nil, err
	}
	raw, err := x.Raw()
	if err != nil {
		return nil, err
	}
	return NewStream(dict, bytes.Clone(raw)), nil
}

// CopyReference copies an indirect object from the source graph to the
// destination graph, and returns the reference of the copy.
//
// The destination object is allocated before the contents are copied, so
// that reference cycles are handled correctly.  If the copy fails, all
// objects allocated for it are removed from the destination graph again,
// and a later call retries the copy.
func (c *Copier) CopyReference(ref Reference) (Reference, error) {
	newRef, ok := c.trans[ref]
	if ok {
		return newRef, nil
	}

	mark := len(c.pending)
	c.depth++
	newRef, err := c.copyReference(ref)
	c.depth--
	if err != nil {
		c.rollback(mark)
		return 0, err
	}
	if c.depth == 0 {
		c.pending = c.pending[:0]
	}
	return newRef, nil
}

func (c *Copier) copyReference(ref Reference) (Reference, error) {
	newRef, err := c.dst.Alloc(nil)
	if err != nil {
		return 0, err
	}
	c.trans[ref] = newRef
	c.pending = append(c.pending, ref)

	val, err := c.src.Get(ref)
	if err != nil {
		return 0, err
	}
	trans, err := c.Copy(val)
	if err != nil {
		return 0, err
	}
	err = c.dst.Put(newRef, trans)
	if err != nil {
		return 0, err
	}
	return newRef, nil
}

// rollback frees the objects allocated since pending had length mark.
// Copies which completed inside the failed call are removed as well, since
// they may refer to the object which could not be copied.
func (c *Copier) rollback(mark int) {
	for i := len(c.pending) - 1; i >= mark; i-- {
		ref := c.pending[i]
		c.dst.Free(c.trans[ref])
		delete(c.trans, ref)
	}
	c.pending = c.pending[:mark]
}

// Redirect records that the object origRef in the source graph is
// represented by newRef in the destination graph.  Later references to
// origRef are translated to newRef, and origRef is not copied.
func (c *Copier) Redirect(origRef, newRef Reference) {
	c.trans[origRef] = newRef
}
