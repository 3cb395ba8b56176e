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
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
)

// SlotState is the lifecycle state of an object in a [Graph].
type SlotState uint8

// These are the possible states of an object.
const (
	// StateFree means the object number is not in use.
	StateFree SlotState = iota

	// StateUnread means the object exists in the underlying file, but has
	// not been read yet.
	StateUnread

	// StateInMemory means the object has been read and was not changed.
	StateInMemory

	// StateModified means the object was changed or newly created, and
	// needs to be written when the graph is saved.
	StateModified

	// StateFlushed means the object has been serialized.  The object can
	// still be read.  Changing it again returns it to StateModified.
	StateFlushed
)

func (s SlotState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateUnread:
		return "unread"
	case StateInMemory:
		return "in memory"
	case StateModified:
		return "modified"
	case StateFlushed:
		return "flushed"
	default:
		return "SlotState(" + strconv.Itoa(int(s)) + ")"
	}
}

// slot holds the state of one object number.
type slot struct {
	state SlotState
	gen   uint16

	// loc is the location of the object in the underlying file.
	loc xrefEntry

	// obj is the cached object, for all states except StateFree and
	// StateUnread.
	obj Object

	// nextFree links the free list.  The list starts at slot 0.
	nextFree uint32

	// flushed holds the serialized object after Flush, until the object
	// is written by Save.
	flushed []byte

	// dirty is set if the slot has changed since the underlying file was
	// read or written.
	dirty bool

	// structural marks cross-reference streams and object streams of the
	// underlying file.
	structural bool
}

// maxPeekDepth limits the recursion when objects are needed while another
// object is being read, for example for an indirect /Length.
const maxPeekDepth = 8

// objStmCacheSize is the number of decoded object streams kept in memory.
const objStmCacheSize = 16

// Graph is the mutable object graph of a PDF document.
//
// Objects are read from the underlying file when they are first accessed,
// and are cached for the lifetime of the graph.  Repeated calls to
// [Graph.Get] with the same reference return the same object, so that
// changes to dictionaries and arrays are visible to all holders.  Use
// [Graph.Put] or [Graph.MarkModified] to record changes, so that they are
// included when the graph is saved.
//
// Reading from a Graph is safe for concurrent use.  Changes must not be made
// concurrently, and no changes are possible while the graph is saved.
type Graph struct {
	mu      sync.RWMutex
	loading singleflight.Group

	opt Options
	log *slog.Logger

	src     io.ReaderAt
	size    int64
	closers []io.Closer

	slots         []slot
	xref          *xrefTable
	trailer       Dict
	version       Version
	reconstructed bool

	sec   *security
	codec *Codec

	objStms *lruCache[uint32, *objStm]
	saving  bool
}

func newGraph(opt *Options) *Graph {
	g := &Graph{
		objStms: newCache[uint32, *objStm](objStmCacheSize),
		trailer: Dict{},
	}
	if opt != nil {
		g.opt = *opt
	}
	g.log = g.opt.logger()
	return g
}

// NewGraph creates an empty graph for a new document.  The document
// catalog must be allocated and registered using [Graph.SetRoot] before the
// graph can be saved.
func NewGraph(v Version, opt *Options) (*Graph, error) {
	g := newGraph(opt)
	g.version = v
	g.slots = []slot{{state: StateFree, gen: 65535}}

	id := make([]byte, 16)
	_, err := rand.Read(id)
	if err != nil {
		return nil, err
	}
	g.trailer["ID"] = Array{String(id), String(bytes.Clone(id))}

	if g.opt.Encryption != nil {
		sec, err := newSecurity(g.opt.Encryption, id)
		if err != nil {
			return nil, err
		}
		codec, err := sec.codec(g.opt.Crypto, Exemptions{Objects: g.opt.ExemptObjects})
		if err != nil {
			return nil, err
		}
		g.sec = sec
		g.codec = codec
		g.version = max(g.version, sec.minVersion())
	}
	return g, nil
}

// Open opens the named PDF file.  Close must be called after use, to close
// the file.  The graph must not be used after Close.
//
// If opt.MemoryMap is set, the file is mapped into memory instead of being
// read using system calls.
func Open(fname string, opt *Options) (*Graph, error) {
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}

	var r io.ReaderAt = fd
	var m mmap.MMap
	if opt != nil && opt.MemoryMap && fi.Size() > 0 {
		m, err = mmap.Map(fd, mmap.RDONLY, 0)
		if err != nil {
			fd.Close()
			return nil, fmt.Errorf("mapping %s: %w", fname, err)
		}
		r = bytes.NewReader(m)
	}

	g, err := Read(r, fi.Size(), opt)
	if err != nil {
		if m != nil {
			m.Unmap()
		}
		fd.Close()
		return nil, err
	}
	if m != nil {
		g.closers = append(g.closers, &mapping{m})
	}
	g.closers = append(g.closers, fd)
	return g, nil
}

// mapping releases a memory mapped file on Close.
type mapping struct {
	m mmap.MMap
}

func (m *mapping) Close() error {
	return m.m.Unmap()
}

// Read reads the cross-reference information of a PDF file and returns
// the object graph.  Objects are read from r when they are first used, so
// r must stay valid until the graph is no longer needed.
//
// If the cross-reference information is damaged, the table is rebuilt by
// scanning the whole file, unless this is disabled in opt.
func Read(r io.ReaderAt, size int64, opt *Options) (*Graph, error) {
	g := newGraph(opt)
	g.src = r
	g.size = size

	version, err := readHeaderVersion(r, size)
	if err != nil {
		return nil, err
	}
	g.version = version

	var objStms []uint32
	xref, err := readXRef(g.newParser(0))
	if err != nil {
		if g.opt.DisableReconstruction {
			return nil, err
		}
		g.warn(err)
		xref, objStms, err = reconstructXRef(g.newParser(0))
		if err != nil {
			return nil, err
		}
		g.reconstructed = true
	}

	err = g.setup(xref, objStms)
	if err != nil && !g.reconstructed && !g.opt.DisableReconstruction &&
		!errors.Is(err, ErrDecryptionFailed) {
		// The table could be read, but does not describe the file.
		g.warn(&CorruptXRefError{Err: err})
		xref, objStms, err = reconstructXRef(g.newParser(0))
		if err != nil {
			return nil, err
		}
		g.reconstructed = true
		err = g.setup(xref, objStms)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// setup initializes the graph from a cross-reference table.
func (g *Graph) setup(xref *xrefTable, objStms []uint32) error {
	g.installXRef(xref)
	g.objStms.Clear()
	g.sec = nil
	g.codec = nil

	g.trailer = Dict{}
	for _, key := range []Name{"Root", "Info", "ID", "Encrypt"} {
		if val, ok := xref.trailer[key]; ok {
			g.trailer[key] = val
		}
	}

	if g.trailer["Encrypt"] != nil {
		err := g.setupEncryption()
		if err != nil {
			return err
		}
	}

	if len(objStms) > 0 {
		g.indexObjectStreams(objStms)
	}
	g.rebuildFreeList()

	catalog, err := GetDict(g, g.trailer["Root"])
	if (err != nil || catalog == nil) && len(objStms) > 0 {
		if ref, ok := g.findCatalog(); ok {
			g.trailer["Root"] = ref
			catalog, err = GetDict(g, ref)
		}
	}
	if err != nil {
		return Wrap(err, "document catalog")
	}
	if catalog == nil {
		return &MalformedFileError{Err: errors.New("document catalog not found")}
	}
	if name, ok := catalog["Version"].(Name); ok {
		v, err := ParseVersion(string(name))
		if err == nil && v > g.version {
			g.version = v
		}
	}
	return nil
}

// installXRef replaces all slots by the contents of a cross-reference
// table.
func (g *Graph) installXRef(t *xrefTable) {
	n := max(t.size(), 1)
	slots := make([]slot, n)
	slots[0] = slot{state: StateFree, gen: 65535}
	for num := uint32(1); num < n; num++ {
		s := &slots[num]
		e, ok := t.entries[num]
		switch {
		case !ok:
			// not mentioned in the file
		case e.kind == xrefFree:
			// The file stores the generation to be used for the next
			// object with this number.
			if e.generation == 65535 {
				s.gen = 65535
			} else if e.generation > 0 {
				s.gen = e.generation - 1
			}
		default:
			s.state = StateUnread
			s.gen = e.generation
			s.loc = e
		}
		s.structural = t.structural[num]
	}

	g.slots = slots
	g.xref = t
}

// rebuildFreeList links all free slots, lowest number first.
func (g *Graph) rebuildFreeList() {
	var head uint32
	for num := len(g.slots) - 1; num > 0; num-- {
		s := &g.slots[num]
		s.nextFree = 0
		if s.state == StateFree && s.gen < 65535 {
			s.nextFree = head
			head = uint32(num)
		}
	}
	g.slots[0].nextFree = head
}

func (g *Graph) setupEncryption() error {
	encObj := g.trailer["Encrypt"]
	encRef, _ := encObj.(Reference)
	encDict, err := GetDict(g, encObj)
	if err != nil {
		return Wrap(err, "encryption dictionary")
	}

	sec, err := openSecurity(encDict, g.fileID(0), g.opt.ReadPassword)
	if err != nil {
		return err
	}
	codec, err := sec.codec(g.opt.Crypto, Exemptions{
		EncryptDict: encRef,
		Objects:     g.opt.ExemptObjects,
	})
	if err != nil {
		return err
	}
	g.sec = sec
	g.codec = codec
	return nil
}

// indexObjectStreams adds the objects stored in the given object streams
// to the graph.  Objects which are also stored in the file body are not
// changed.
func (g *Graph) indexObjectStreams(containers []uint32) {
	for _, container := range containers {
		o, err := g.objStm(container, 0)
		if err != nil {
			g.warn(err)
			continue
		}
		for i, item := range o.items {
			if uint64(item.number) >= uint64(len(g.slots))+maxObjStmObjects {
				g.warn(&MalformedFileError{
					Loc: []string{"object stream " + strconv.Itoa(int(container))},
					Err: fmt.Errorf("object number %d out of range", item.number),
				})
				continue
			}
			if uint64(item.number) >= uint64(len(g.slots)) {
				g.slots = append(g.slots, make([]slot, int(item.number)+1-len(g.slots))...)
			}
			s := &g.slots[item.number]
			if s.state != StateFree {
				continue
			}
			s.state = StateUnread
			s.gen = 0
			s.loc = xrefEntry{kind: xrefInStream, container: container, index: i}
		}
	}
}

// findCatalog searches all objects, including the ones stored in object
// streams, for the document catalog.  Catalogs with a /Pages entry are
// preferred.
func (g *Graph) findCatalog() (Reference, bool) {
	var found Reference
	hasPages := false
	for _, ref := range g.Objects() {
		obj, err := g.Get(ref)
		if err != nil {
			continue
		}
		dict, ok := obj.(Dict)
		if !ok || dict["Type"] != Name("Catalog") {
			continue
		}
		_, pages := dict["Pages"]
		if found == 0 || pages && !hasPages {
			found = ref
			hasPages = pages
		}
	}
	return found, found != 0
}

// fileID returns element i of the document ID, or nil if there is no
// valid ID.
func (g *Graph) fileID(i int) []byte {
	id, ok := g.trailer["ID"].(Array)
	if !ok || len(id) != 2 {
		return nil
	}
	s, _ := id[i].(String)
	return []byte(s)
}

// Close releases the resources held by the graph.  If the graph was
// created using [Open], the file is closed.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for _, c := range g.closers {
		errs = append(errs, c.Close())
	}
	g.closers = nil
	g.objStms.Clear()
	return errors.Join(errs...)
}

func (g *Graph) warn(err error) {
	g.log.Warn("recovered from error", "error", err)
	if g.opt.OnWarning != nil {
		g.opt.OnWarning(err)
	}
}

// newParser returns a parser for the underlying file.  Indirect stream
// lengths are resolved without modifying the graph.
func (g *Graph) newParser(depth int) *parser {
	p := newParser(g.src, g.size)
	p.warn = g.warn
	p.getLength = func(ref Reference) (int64, bool) {
		obj, err := g.peek(ref, depth+1)
		if err != nil {
			return 0, false
		}
		l, ok := obj.(Integer)
		return int64(l), ok && l >= 0
	}
	return p
}

// Get returns the object with the given reference.  Free objects and
// references to non-existent objects resolve to null.  If the generation
// of ref does not match the stored object, null is returned and a
// [StaleReferenceError] is reported as a warning.
//
// The first call for an object reads the object from the file.  All later
// calls return the same object.
func (g *Graph) Get(ref Reference) (Object, error) {
	num := ref.Number()

	g.mu.RLock()
	if num == 0 || uint64(num) >= uint64(len(g.slots)) {
		g.mu.RUnlock()
		return nil, nil
	}
	s := g.slots[num]
	g.mu.RUnlock()

	if s.state == StateFree {
		return nil, nil
	}
	if s.gen != ref.Generation() {
		g.warn(&StaleReferenceError{Ref: ref, Current: s.gen})
		return nil, nil
	}
	if s.state != StateUnread {
		return s.obj, nil
	}

	obj, err, _ := g.loading.Do(strconv.FormatUint(uint64(num), 10), func() (any, error) {
		// Another call may have completed in the meantime.
		g.mu.RLock()
		s := g.slots[num]
		g.mu.RUnlock()
		if s.state != StateUnread || s.gen != ref.Generation() {
			return s.obj, nil
		}

		obj, err := g.load(ref, s.loc)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		cur := &g.slots[num]
		if cur.state != StateUnread || cur.gen != ref.Generation() {
			// The slot was changed while the object was read.
			return cur.obj, nil
		}
		cur.obj = obj
		cur.state = StateInMemory
		return obj, nil
	})
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(Object), nil
}

// load reads an object from the underlying file.
func (g *Graph) load(ref Reference, loc xrefEntry) (Object, error) {
	switch loc.kind {
	case xrefInBody:
		return g.readBodyObject(ref, loc.pos, 0)
	case xrefInStream:
		if loc.container == ref.Number() {
			return nil, &MalformedFileError{
				Err: fmt.Errorf("object %s is stored inside itself", ref),
			}
		}
		o, err := g.objStm(loc.container, 0)
		if err != nil {
			return nil, Wrap(err, "object "+ref.String())
		}
		return o.get(ref.Number(), loc.index, g.warn)
	}
	return nil, nil
}

// readBodyObject reads and decrypts an indirect object stored at pos.
func (g *Graph) readBodyObject(ref Reference, pos int64, depth int) (Object, error) {
	p := g.newParser(depth)
	p.seek(pos)
	got, obj, err := p.readIndirectObject()
	if err != nil {
		return nil, Wrap(err, "object "+ref.String())
	}
	if got != ref {
		return nil, &MalformedFileError{
			Pos: pos,
			Err: fmt.Errorf("expected object %s, found %s", ref, got),
		}
	}
	if g.codec != nil {
		obj, err = g.codec.decryptObject(ref, obj)
		if err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// peek returns an object without storing it in the graph.  This is used
// while other objects are being read, so it must not wait for objects
// which are currently loading.
func (g *Graph) peek(ref Reference, depth int) (Object, error) {
	if depth > maxPeekDepth {
		return nil, &MalformedFileError{Err: errors.New("objects nested too deeply")}
	}
	num := ref.Number()

	g.mu.RLock()
	if num == 0 || uint64(num) >= uint64(len(g.slots)) {
		g.mu.RUnlock()
		return nil, nil
	}
	s := g.slots[num]
	g.mu.RUnlock()

	if s.state == StateFree || s.gen != ref.Generation() {
		return nil, nil
	}
	if s.state != StateUnread {
		return s.obj, nil
	}
	switch s.loc.kind {
	case xrefInBody:
		return g.readBodyObject(ref, s.loc.pos, depth)
	case xrefInStream:
		if s.loc.container == num {
			return nil, nil
		}
		o, err := g.objStm(s.loc.container, depth)
		if err != nil {
			return nil, err
		}
		return o.get(num, s.loc.index, g.warn)
	}
	return nil, nil
}

// peekGetter resolves references using [Graph.peek].
type peekGetter struct {
	g     *Graph
	depth int
}

func (pg peekGetter) Get(ref Reference) (Object, error) {
	return pg.g.peek(ref, pg.depth+1)
}

// objStm returns the decoded contents of an object stream.
func (g *Graph) objStm(num uint32, depth int) (*objStm, error) {
	if o, ok := g.objStms.Get(num); ok {
		return o, nil
	}
	if depth > maxPeekDepth {
		return nil, &MalformedFileError{Err: errors.New("objects nested too deeply")}
	}

	g.mu.RLock()
	if uint64(num) >= uint64(len(g.slots)) {
		g.mu.RUnlock()
		return nil, &MalformedFileError{Err: fmt.Errorf("object stream %d not found", num)}
	}
	s := g.slots[num]
	g.mu.RUnlock()
	ref := NewReference(num, s.gen)

	var obj Object
	switch {
	case s.state == StateFree:
		return nil, &MalformedFileError{Err: fmt.Errorf("object stream %d not found", num)}
	case s.state != StateUnread:
		obj = s.obj
	case s.loc.kind != xrefInBody:
		return nil, &MalformedFileError{
			Err: fmt.Errorf("object stream %s is stored inside another object stream", ref),
		}
	default:
		var err error
		obj, err = g.readBodyObject(ref, s.loc.pos, depth)
		if err != nil {
			return nil, err
		}
	}

	stm, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedFileError{Err: fmt.Errorf("object stream %s is not a stream", ref)}
	}
	filters, err := getFilters(peekGetter{g, depth}, stm.Dict)
	if err != nil {
		return nil, Wrap(err, "object stream "+ref.String())
	}
	raw, err := stm.Raw()
	if err != nil {
		return nil, Wrap(err, "object stream "+ref.String())
	}
	data, truncated, err := decodeBytes(raw, filters)
	if err != nil {
		return nil, Wrap(err, "object stream "+ref.String())
	}
	if truncated {
		g.warn(&MalformedFileError{
			Loc: []string{"object stream " + ref.String()},
			Err: ErrTruncatedStream,
		})
	}

	o, err := parseObjStm(ref, stm.Dict, data)
	if err != nil {
		return nil, err
	}
	if g.xref != nil {
		for _, item := range o.items {
			if g.xref.xrefStreams[item.number] {
				return nil, &MalformedFileError{
					Loc: []string{"object stream " + ref.String()},
					Err: fmt.Errorf("contains cross-reference stream %d", item.number),
				}
			}
		}
	}

	g.objStms.Put(num, o)
	return o, nil
}

// lockForUpdate acquires the write lock, unless a save is in progress.
func (g *Graph) lockForUpdate() error {
	g.mu.Lock()
	if g.saving {
		g.mu.Unlock()
		return ErrSaveInProgress
	}
	return nil
}

// liveSlot returns the slot of a live object.  The caller must hold the
// lock.
func (g *Graph) liveSlot(ref Reference) (*slot, error) {
	num := ref.Number()
	if num == 0 || uint64(num) >= uint64(len(g.slots)) || g.slots[num].state == StateFree {
		return nil, fmt.Errorf("object %s: %w", ref, ErrFreeObject)
	}
	s := &g.slots[num]
	if s.gen != ref.Generation() {
		return nil, &StaleReferenceError{Ref: ref, Current: s.gen}
	}
	return s, nil
}

// checkLive returns an error if ref does not identify a live object.
func (g *Graph) checkLive(ref Reference) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := g.liveSlot(ref)
	return err
}

// Put replaces the object ref by obj and marks it as modified.
// The object must not be free.
func (g *Graph) Put(ref Reference, obj Object) error {
	err := g.lockForUpdate()
	if err != nil {
		return err
	}
	defer g.mu.Unlock()

	s, err := g.liveSlot(ref)
	if err != nil {
		return err
	}
	s.obj = obj
	s.markModified()
	return nil
}

// MarkModified records that the object ref has been changed in memory, so
// that it is written when the graph is saved.  If the object was already
// flushed, the flushed data is discarded.
func (g *Graph) MarkModified(ref Reference) error {
	// make sure the object is in memory
	_, err := g.Get(ref)
	if err != nil {
		return err
	}

	err = g.lockForUpdate()
	if err != nil {
		return err
	}
	defer g.mu.Unlock()

	s, err := g.liveSlot(ref)
	if err != nil {
		return err
	}
	if s.state == StateUnread {
		return fmt.Errorf("object %s could not be read", ref)
	}
	s.markModified()
	return nil
}

func (s *slot) markModified() {
	s.state = StateModified
	s.flushed = nil
	s.dirty = true
	s.structural = false
}

// Alloc adds a new object to the graph and returns its reference.
// If a free object number is available, it is reused with an incremented
// generation number.  Otherwise the graph grows by one object.
func (g *Graph) Alloc(obj Object) (Reference, error) {
	err := g.lockForUpdate()
	if err != nil {
		return 0, err
	}
	defer g.mu.Unlock()

	return g.alloc(obj)
}

func (g *Graph) alloc(obj Object) (Reference, error) {
	var num uint32
	if head := g.slots[0].nextFree; head != 0 {
		s := &g.slots[head]
		g.slots[0].nextFree = s.nextFree
		s.nextFree = 0
		s.gen++
		num = head
	} else {
		if uint64(len(g.slots)) > math.MaxUint32 {
			return 0, errors.New("too many objects")
		}
		num = uint32(len(g.slots))
		g.slots = append(g.slots, slot{})
	}

	s := &g.slots[num]
	s.loc = xrefEntry{}
	s.obj = obj
	s.markModified()
	return NewReference(num, s.gen), nil
}

// Free removes an object from the graph.  The object number is put on the
// free list, and is reused with the next generation number by a later call
// to [Graph.Alloc].  Freeing an object which is already free does nothing.
func (g *Graph) Free(ref Reference) error {
	err := g.lockForUpdate()
	if err != nil {
		return err
	}
	defer g.mu.Unlock()

	num := ref.Number()
	if num == 0 || uint64(num) >= uint64(len(g.slots)) {
		return nil
	}
	s := &g.slots[num]
	if s.state == StateFree {
		return nil
	}
	if s.gen != ref.Generation() {
		g.warn(&StaleReferenceError{Ref: ref, Current: s.gen})
		return nil
	}

	s.state = StateFree
	s.obj = nil
	s.flushed = nil
	s.dirty = true
	s.structural = false
	if s.gen < 65535 {
		s.nextFree = g.slots[0].nextFree
		g.slots[0].nextFree = num
	}
	return nil
}

// Flush serializes the object ref now, so that later changes to the
// in-memory object are not included when the graph is saved.  The object
// is written by the next call to [Graph.Save].
//
// Unless allowDangling is set, Flush fails with a [DanglingReferenceError]
// if the object refers to free or non-existent objects.
func (g *Graph) Flush(ref Reference, allowDangling bool) error {
	obj, err := g.Get(ref)
	if err != nil {
		return err
	}

	err = g.lockForUpdate()
	if err != nil {
		return err
	}
	defer g.mu.Unlock()

	s, err := g.liveSlot(ref)
	if err != nil {
		return err
	}
	if !allowDangling {
		err = g.checkDangling(ref, obj)
		if err != nil {
			return err
		}
	}

	data, err := serializeObject(ref, obj, g.codec)
	if err != nil {
		return err
	}
	s.flushed = data
	s.state = StateFlushed
	s.dirty = true
	s.structural = false
	return nil
}

// checkDangling checks that all references inside obj point to live
// objects.  The caller must hold the lock.
func (g *Graph) checkDangling(from Reference, obj Object) error {
	var missing []Reference
	walkRefs(obj, func(ref Reference) bool {
		num := ref.Number()
		if num == 0 || uint64(num) >= uint64(len(g.slots)) ||
			g.slots[num].state == StateFree || g.slots[num].gen != ref.Generation() {
			if !slices.Contains(missing, ref) {
				missing = append(missing, ref)
			}
		}
		return true
	})
	if len(missing) > 0 {
		return &DanglingReferenceError{From: from, To: missing}
	}
	return nil
}

// walkRefs calls fn for every reference contained in obj, without
// following the references.  The walk stops early if fn returns false.
func walkRefs(obj Object, fn func(Reference) bool) bool {
	switch obj := obj.(type) {
	case Reference:
		return fn(obj)
	case Array:
		for _, elem := range obj {
			if !walkRefs(elem, fn) {
				return false
			}
		}
	case Dict:
		for _, key := range obj.sortedKeys() {
			if !walkRefs(obj[key], fn) {
				return false
			}
		}
	case *Stream:
		return walkRefs(obj.Dict, fn)
	}
	return true
}

// State returns the lifecycle state of the object ref.  References with
// the wrong generation number are reported as free.
func (g *Graph) State(ref Reference) SlotState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	num := ref.Number()
	if num == 0 || uint64(num) >= uint64(len(g.slots)) {
		return StateFree
	}
	s := &g.slots[num]
	if s.gen != ref.Generation() {
		return StateFree
	}
	return s.state
}

// NumObjects returns one more than the highest object number in use.
// This is the value of /Size in the trailer.
func (g *Graph) NumObjects() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.slots)
}

// Objects returns the references of all objects which are not free, in
// order of increasing object number.
func (g *Graph) Objects() []Reference {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var res []Reference
	for num := 1; num < len(g.slots); num++ {
		s := &g.slots[num]
		if s.state == StateFree {
			continue
		}
		res = append(res, NewReference(uint32(num), s.gen))
	}
	return res
}

// Trailer returns a copy of the document-level entries of the trailer
// dictionary: /Root, /Info, /ID and /Encrypt.
func (g *Graph) Trailer() Dict {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.trailer.Clone()
}

// SetRoot sets the document catalog.
func (g *Graph) SetRoot(ref Reference) error {
	return g.setTrailer("Root", ref)
}

// SetInfo sets the document information dictionary.  Use 0 to remove the
// information dictionary.
func (g *Graph) SetInfo(ref Reference) error {
	if ref == 0 {
		return g.setTrailer("Info", nil)
	}
	return g.setTrailer("Info", ref)
}

func (g *Graph) setTrailer(key Name, val Object) error {
	err := g.lockForUpdate()
	if err != nil {
		return err
	}
	defer g.mu.Unlock()

	if val == nil {
		delete(g.trailer, key)
	} else {
		g.trailer[key] = val
	}
	return nil
}

// Catalog returns the document catalog.
func (g *Graph) Catalog() (Dict, error) {
	g.mu.RLock()
	root := g.trailer["Root"]
	g.mu.RUnlock()

	return GetDict(g, root)
}

// Version returns the PDF version of the document.  This is the version
// from the file header, or the /Version entry in the document catalog if
// this is higher.
func (g *Graph) Version() Version {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// SetVersion changes the PDF version used when the graph is saved.
func (g *Graph) SetVersion(v Version) error {
	if _, err := v.ToString(); err != nil {
		return err
	}
	err := g.lockForUpdate()
	if err != nil {
		return err
	}
	defer g.mu.Unlock()
	g.version = v
	return nil
}

// Reconstructed reports whether the cross-reference table of the file was
// damaged and had to be rebuilt by scanning the file.
func (g *Graph) Reconstructed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reconstructed
}

// Permissions returns the operations permitted to users who opened an
// encrypted document with the user password.  For unencrypted documents,
// [PermAll] is returned.
func (g *Graph) Permissions() Perm {
	if g.sec == nil {
		return PermAll
	}
	return g.sec.Permissions()
}

// NewStream creates a stream with the given dictionary and decoded
// payload.  The data is encoded using the default filters of the graph,
// see [Options.DefaultFilters].  The stream is not added to the graph; use
// [Graph.Alloc] for this.
func (g *Graph) NewStream(dict Dict, data []byte) (*Stream, error) {
	filters := g.opt.defaultFilters()
	encoded, err := EncodeBytes(data, filters)
	if err != nil {
		return nil, err
	}

	dict = dict.Clone()
	if dict == nil {
		dict = Dict{}
	}
	delete(dict, "Filter")
	delete(dict, "DecodeParms")
	filter, parms := filtersAsDict(filters)
	if filter != nil {
		dict["Filter"] = filter
	}
	if parms != nil {
		dict["DecodeParms"] = parms
	}
	return NewStream(dict, encoded), nil
}

// DecodeStream returns the decoded payload of a stream.
//
// If a filter is not supported, the result depends on
// [Options.UnsupportedFilters]: either an [UnsupportedFilterError] is
// returned, or the data is returned as it is before the unsupported filter.
func (g *Graph) DecodeStream(stm *Stream) ([]byte, error) {
	filters, err := getFilters(g, stm.Dict)
	if err != nil {
		return nil, err
	}
	raw, err := stm.Raw()
	if err != nil {
		return nil, err
	}

	for i, fi := range filters {
		if fi.canDecode() {
			continue
		}
		err := &UnsupportedFilterError{Name: fi.Name, Op: "decode"}
		if g.opt.UnsupportedFilters != FilterPassThrough {
			return nil, err
		}
		g.warn(err)
		filters = filters[:i]
		break
	}

	data, truncated, err := decodeBytes(raw, filters)
	if err != nil {
		return nil, err
	}
	if truncated {
		g.warn(&MalformedFileError{Err: ErrTruncatedStream})
	}
	return data, nil
}

// readHeaderVersion finds the "%PDF-x.y" header near the start of a file.
func readHeaderVersion(r io.ReaderAt, size int64) (Version, error) {
	buf := make([]byte, min(size, 1024))
	n, _ := r.ReadAt(buf, 0)
	buf = buf[:n]

	idx := bytes.Index(buf, []byte("%PDF-"))
	if idx < 0 {
		return 0, &MalformedFileError{Err: errNoPDF}
	}
	rest := buf[idx+5:]
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || rest[end] == '.') {
		end++
	}
	v, err := ParseVersion(string(rest[:end]))
	if err != nil {
		return 0, &MalformedFileError{Pos: int64(idx), Err: err}
	}
	return v, nil
}
