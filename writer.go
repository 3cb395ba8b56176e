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

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
)

// SaveMode selects how a graph is written.
type SaveMode int

const (
	// FullRewrite writes a complete new file containing all objects.
	FullRewrite SaveMode = iota

	// IncrementalAppend keeps the original file unchanged and appends the
	// changed objects together with a new cross-reference section.
	IncrementalAppend
)

func (m SaveMode) String() string {
	switch m {
	case FullRewrite:
		return "full rewrite"
	case IncrementalAppend:
		return "incremental append"
	default:
		return fmt.Sprintf("SaveMode(%d)", int(m))
	}
}

// Write writes the graph to w.  See [Graph.Save] for details.
func (g *Graph) Write(w io.Writer, mode SaveMode) error {
	data, err := g.Save(mode)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Save serializes the graph and returns the resulting PDF file.
//
// In mode [FullRewrite], all live objects are written.  For PDF version 1.5
// and newer, a cross-reference stream is used and small objects are packed
// into object streams.  In mode [IncrementalAppend], the output consists of
// the original file, followed by the changed objects and a new
// cross-reference section.
//
// After a successful save, the graph refers to the returned data, so that
// further changes can be saved incrementally.  No changes can be made to
// the graph while Save is running.
func (g *Graph) Save(mode SaveMode) ([]byte, error) {
	g.mu.Lock()
	if g.saving {
		g.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	g.saving = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.saving = false
		g.mu.Unlock()
	}()

	var out []byte
	var err error
	switch mode {
	case FullRewrite:
		out, err = g.writeFull()
	case IncrementalAppend:
		out, err = g.writeIncremental()
	default:
		err = fmt.Errorf("invalid save mode %d", int(mode))
	}
	if err != nil {
		return nil, err
	}

	err = g.rebase(out, mode)
	if err != nil {
		return nil, err
	}
	g.log.Debug("graph saved", "mode", mode, "size", len(out))
	return out, nil
}

// snapshot returns a copy of the slots.  All objects which are needed for
// writing are read into memory first.
func (g *Graph) snapshot(needAll bool) ([]slot, error) {
	g.mu.RLock()
	n := len(g.slots)
	g.mu.RUnlock()

	if needAll {
		for num := 1; num < n; num++ {
			g.mu.RLock()
			s := g.slots[num]
			g.mu.RUnlock()
			if s.state != StateUnread || s.structural {
				continue
			}
			_, err := g.Get(NewReference(uint32(num), s.gen))
			if err != nil {
				return nil, err
			}
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.slots), nil
}

// writeVersion returns the PDF version to use for the output.
func (g *Graph) writeVersion() Version {
	g.mu.RLock()
	v := g.version
	g.mu.RUnlock()
	if g.sec != nil {
		v = max(v, g.sec.minVersion())
	}
	if _, err := v.ToString(); err != nil {
		v = V1_7
	}
	return v
}

// newTrailer returns the trailer entries for the output file.  The
// second element of the document ID is regenerated.
func (g *Graph) newTrailer() (Dict, error) {
	g.mu.RLock()
	trailer := g.trailer.Clone()
	g.mu.RUnlock()

	if _, ok := trailer["Root"].(Reference); !ok {
		return nil, errors.New("document catalog not set")
	}

	id1 := make([]byte, 16)
	_, err := rand.Read(id1)
	if err != nil {
		return nil, err
	}
	id0 := g.fileID(0)
	if id0 == nil {
		id0 = bytes.Clone(id1)
	}
	trailer["ID"] = Array{String(id0), String(id1)}
	return trailer, nil
}

// writeFull writes all live objects into a new file.
func (g *Graph) writeFull() ([]byte, error) {
	slots, err := g.snapshot(true)
	if err != nil {
		return nil, err
	}
	trailer, err := g.newTrailer()
	if err != nil {
		return nil, err
	}
	version := g.writeVersion()

	var encNum uint32
	if g.sec != nil {
		if ref, ok := trailer["Encrypt"].(Reference); ok {
			encNum = ref.Number()
		}
		trailer["Encrypt"] = g.sec.asDict()
	}

	useStreams := version >= V1_5
	groupSize := 0
	if useStreams {
		groupSize = g.opt.objectStreamSize()
	}

	buf := &bytes.Buffer{}
	w := &posWriter{w: buf}
	vString, _ := version.ToString()
	_, err = fmt.Fprintf(w, "%%PDF-%s\n%%\x80\x80\x80\x80\n", vString)
	if err != nil {
		return nil, err
	}

	section := xrefSection{}
	var packed []objStmEntry
	for num := 1; num < len(slots); num++ {
		s := &slots[num]
		if s.state == StateFree || s.structural || num == int(encNum) {
			continue
		}
		ref := NewReference(uint32(num), s.gen)
		pos := w.pos
		switch {
		case s.flushed != nil:
			_, err = w.Write(s.flushed)
		case groupSize > 0 && g.packable(ref, s.obj):
			packed = append(packed, objStmEntry{number: uint32(num), obj: s.obj})
			continue
		default:
			err = w.writeIndirect(ref, s.obj, g.codec)
		}
		if err != nil {
			return nil, err
		}
		section[uint32(num)] = xrefEntry{kind: xrefInBody, pos: pos, generation: s.gen}
	}

	next := uint32(len(slots))
	for start := 0; start < len(packed); start += groupSize {
		group := packed[start:min(start+groupSize, len(packed))]
		container := next
		next++

		stm, err := encodeObjStm(group)
		if err != nil {
			return nil, err
		}
		pos := w.pos
		err = w.writeIndirect(NewReference(container, 0), stm, g.codec)
		if err != nil {
			return nil, err
		}
		section[container] = xrefEntry{kind: xrefInBody, pos: pos}
		for i, e := range group {
			section[e.number] = xrefEntry{kind: xrefInStream, container: container, index: i}
		}
	}

	var xrefNum uint32
	if useStreams {
		xrefNum = next
		next++
	}
	for num := uint32(0); num < next; num++ {
		if _, ok := section[num]; ok {
			continue
		}
		var gen uint16
		if int(num) < len(slots) {
			gen = slots[num].nextGeneration()
		}
		section[num] = xrefEntry{kind: xrefFree, generation: gen}
	}
	section[0] = xrefEntry{kind: xrefFree, generation: 65535}

	trailer["Size"] = Integer(next)
	err = g.writeXRefSection(w, section, trailer, useStreams, xrefNum)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// packable reports whether an object can be stored in an object stream.
func (g *Graph) packable(ref Reference, obj Object) bool {
	if _, isStream := obj.(*Stream); isStream {
		return false
	}
	if ref.Generation() != 0 {
		return false
	}
	if g.codec != nil && g.codec.Exempt.exemptObject(ref, obj) {
		return false
	}
	return true
}

// nextGeneration returns the generation number recorded for a free object
// in a cross-reference section.  This is the generation to be used when
// the object number is reused.
func (s *slot) nextGeneration() uint16 {
	if s.gen == 65535 {
		return 65535
	}
	return s.gen + 1
}

// writeIncremental appends the changed objects to the original file.
func (g *Graph) writeIncremental() ([]byte, error) {
	if g.src == nil {
		return nil, ErrNoSource
	}
	slots, err := g.snapshot(false)
	if err != nil {
		return nil, err
	}
	trailer, err := g.newTrailer()
	if err != nil {
		return nil, err
	}

	orig := make([]byte, g.size)
	n, err := g.src.ReadAt(orig, 0)
	if n < len(orig) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading original file: %w", err)
	}
	buf := bytes.NewBuffer(orig)
	if len(orig) > 0 && orig[len(orig)-1] != '\n' && orig[len(orig)-1] != '\r' {
		buf.WriteByte('\n')
	}
	w := &posWriter{w: buf, pos: int64(buf.Len())}

	g.mu.RLock()
	reconstructed := g.reconstructed
	g.mu.RUnlock()

	section := xrefSection{}
	hasFree := false
	for num := 1; num < len(slots); num++ {
		s := &slots[num]
		ref := NewReference(uint32(num), s.gen)
		switch {
		case s.dirty && s.state == StateFree:
			section[uint32(num)] = xrefEntry{kind: xrefFree, generation: s.nextGeneration()}
			hasFree = true
		case s.dirty:
			pos := w.pos
			if s.flushed != nil {
				_, err = w.Write(s.flushed)
			} else {
				err = w.writeIndirect(ref, s.obj, g.codec)
			}
			if err != nil {
				return nil, err
			}
			section[uint32(num)] = xrefEntry{kind: xrefInBody, pos: pos, generation: s.gen}
		case reconstructed && s.state != StateFree && s.loc.kind != xrefFree:
			// The old sections cannot be used, so the new section
			// must describe all objects.
			section[uint32(num)] = s.loc
		}
	}
	if hasFree || reconstructed {
		section[0] = xrefEntry{kind: xrefFree, generation: 65535}
	}

	size := uint32(len(slots))
	useStream := g.xref != nil && g.xref.isStream
	if reconstructed {
		useStream = g.writeVersion() >= V1_5
	} else if g.xref != nil {
		trailer["Prev"] = Integer(g.xref.start)
	}
	var xrefNum uint32
	if useStream {
		xrefNum = size
		size++
	}
	trailer["Size"] = Integer(size)

	err = g.writeXRefSection(w, section, trailer, useStream, xrefNum)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeXRefSection writes a cross-reference section, the trailer and the
// final startxref line.  If asStream is set, a cross-reference stream with
// object number xrefNum is used.
func (g *Graph) writeXRefSection(w *posWriter, section xrefSection, trailer Dict, asStream bool, xrefNum uint32) error {
	linkFreeEntries(section)
	start := w.pos

	if asStream {
		section[xrefNum] = xrefEntry{kind: xrefInBody, pos: start}
		stm, err := encodeXRefStream(section, trailer)
		if err != nil {
			return err
		}
		// cross-reference streams are never encrypted
		err = w.writeIndirect(NewReference(xrefNum, 0), stm, nil)
		if err != nil {
			return err
		}
	} else {
		err := writeXRefTable(w, section, trailer)
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "startxref\n%d\n%%%%EOF\n", start)
	return err
}

// linkFreeEntries sets up the linked list of free objects in a section.
// Each free entry points to the next higher free object number, and the
// last one points to object 0.
func linkFreeEntries(section xrefSection) {
	var free []uint32
	for num, e := range section {
		if e.kind == xrefFree {
			free = append(free, num)
		}
	}
	slices.Sort(free)
	for i, num := range free {
		e := section[num]
		e.pos = 0
		if i+1 < len(free) {
			e.pos = int64(free[i+1])
		}
		section[num] = e
	}
}

// rebase makes the graph refer to newly written data.  Written objects
// change to [StateFlushed] and are no longer dirty.
func (g *Graph) rebase(data []byte, mode SaveMode) error {
	r := bytes.NewReader(data)
	p := newParser(r, int64(len(data)))
	p.warn = g.warn
	t, err := readXRef(p)
	if err != nil {
		return fmt.Errorf("re-reading written data: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if n := int(t.size()); n > len(g.slots) {
		g.slots = append(g.slots, make([]slot, n-len(g.slots))...)
	}
	for num := 1; num < len(g.slots); num++ {
		s := &g.slots[num]
		e, inFile := t.lookup(NewReference(uint32(num), s.gen))
		written := s.dirty || mode == FullRewrite

		switch {
		case s.state == StateFree && !inFile:
			s.loc = xrefEntry{}
		case !inFile:
			// Dropped while rewriting, e.g. an old object stream.
			s.state = StateFree
			s.obj = nil
			s.loc = xrefEntry{}
		case s.state == StateFree:
			// Containers and the cross-reference stream, which were
			// created while writing.
			s.state = StateUnread
			s.gen = e.generation
			s.loc = e
		case written:
			s.loc = e
			if s.state != StateUnread {
				s.state = StateFlushed
			}
		}
		s.flushed = nil
		s.dirty = false
		s.structural = t.structural[uint32(num)]
	}

	g.src = r
	g.size = int64(len(data))
	g.xref = t
	g.reconstructed = false
	g.objStms.Clear()
	g.rebuildFreeList()

	for _, key := range []Name{"ID", "Encrypt"} {
		if val, ok := t.trailer[key]; ok {
			g.trailer[key] = val
		}
	}
	if g.codec != nil {
		ref, _ := g.trailer["Encrypt"].(Reference)
		g.codec.Exempt.EncryptDict = ref
	}
	return nil
}
