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
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"golang.org/x/exp/slices"
)

type xrefKind uint8

const (
	xrefFree xrefKind = iota
	xrefInBody
	xrefInStream
)

// xrefEntry describes the location of an object in a PDF file.
type xrefEntry struct {
	kind       xrefKind
	pos        int64 // byte offset for xrefInBody, next free object for xrefFree
	generation uint16
	container  uint32 // object stream number for xrefInStream
	index      int    // index inside the object stream
}

// xrefTable is the merged view of all cross-reference sections of a file.
// Newer sections shadow older ones.
type xrefTable struct {
	entries map[uint32]xrefEntry

	// trailer is the trailer dictionary of the newest section.
	trailer Dict

	// start is the offset of the newest section, i.e. the value after
	// the final "startxref".
	start int64

	// isStream is set if the newest section is a cross-reference stream.
	isStream bool

	// structural lists xref streams and object streams.  These objects
	// belong to the file structure rather than to the document.
	structural map[uint32]bool

	// xrefStreams lists the cross-reference streams.
	xrefStreams map[uint32]bool
}

func newXRefTable() *xrefTable {
	return &xrefTable{
		entries:     make(map[uint32]xrefEntry),
		structural:  make(map[uint32]bool),
		xrefStreams: make(map[uint32]bool),
	}
}

// lookup returns the location of the given object.
// Free objects, unknown objects and references with a generation number
// different from the stored one are reported as not found.
func (t *xrefTable) lookup(ref Reference) (xrefEntry, bool) {
	e, ok := t.entries[ref.Number()]
	if !ok || e.kind == xrefFree {
		return xrefEntry{}, false
	}
	if e.generation != ref.Generation() {
		return xrefEntry{}, false
	}
	return e, true
}

// size returns one more than the highest object number in the table.
// The /Size entry of the trailer is not trusted, since a wrong value would
// make the graph allocate space for objects which do not exist.
func (t *xrefTable) size() uint32 {
	var n uint32
	for num := range t.entries {
		if num >= n {
			n = num + 1
		}
	}
	return n
}

// add stores an entry unless a newer section has already defined the
// object.
func (t *xrefTable) add(num uint32, e xrefEntry) {
	if _, seen := t.entries[num]; seen {
		return
	}
	t.entries[num] = e
	if e.kind == xrefInStream {
		t.structural[e.container] = true
	}
}

// readXRef reads the cross-reference information of a file, following the
// chain of /Prev pointers.
func readXRef(p *parser) (*xrefTable, error) {
	start, err := findXRef(p.lex)
	if err != nil {
		return nil, err
	}

	t := newXRefTable()
	t.start = start

	seen := make(map[int64]bool)
	pos := start
	first := true
	for {
		if seen[pos] {
			return nil, &CorruptXRefError{Pos: pos, Err: errors.New("cycle in /Prev chain")}
		}
		seen[pos] = true

		trailer, isStream, err := t.readSection(p, pos)
		if err != nil {
			return nil, err
		}
		if first {
			t.trailer = trailer
			t.isStream = isStream
			first = false
		}

		if xs, ok := trailer["XRefStm"].(Integer); ok && !isStream {
			// hybrid file: the stream fills in objects missing from the table
			if !seen[int64(xs)] {
				seen[int64(xs)] = true
				_, _, err := t.readSection(p, int64(xs))
				if err != nil {
					return nil, err
				}
			}
		}

		prev, ok := trailer["Prev"].(Integer)
		if !ok {
			break
		}
		pos = int64(prev)
	}

	if _, ok := t.trailer["Root"].(Reference); !ok {
		return nil, &CorruptXRefError{Pos: start, Err: errors.New("trailer has no /Root")}
	}
	return t, nil
}

// findXRef locates the final "startxref" keyword and returns the offset
// which follows it.
func findXRef(lex *lexer) (int64, error) {
	pos, ok := lastOccurrence(lex, "startxref")
	if !ok {
		return 0, &CorruptXRefError{Err: errors.New("startxref not found")}
	}
	lex.seek(pos + 9)
	t := lex.next()
	if t.kind != tokInteger || t.num <= 0 || t.num >= lex.size {
		return 0, &CorruptXRefError{Pos: t.pos, Err: errors.New("invalid xref position")}
	}
	return t.num, nil
}

func lastOccurrence(lex *lexer, pat string) (int64, bool) {
	const chunkSize = 1024

	buf := make([]byte, chunkSize)
	k := int64(len(pat))
	pos := lex.size
	for pos >= k {
		start := max(pos-chunkSize, 0)
		n, _ := lex.r.ReadAt(buf[:pos-start], start)
		idx := bytes.LastIndex(buf[:n], []byte(pat))
		if idx >= 0 {
			return start + int64(idx), true
		}
		if start == 0 {
			break
		}
		pos = start + k - 1
	}
	return 0, false
}

func (t *xrefTable) readSection(p *parser, pos int64) (Dict, bool, error) {
	if pos < 0 || pos >= p.lex.size {
		return nil, false, &CorruptXRefError{Pos: pos, Err: errors.New("xref offset out of range")}
	}
	p.seek(pos)
	tok := p.next()
	p.unread(tok)
	if tok.isKeyword("xref") {
		trailer, err := t.readTable(p)
		return trailer, false, err
	}
	trailer, err := t.readStream(p, pos)
	return trailer, true, err
}

// readTable reads a classic cross-reference table, followed by the
// trailer dictionary.
func (t *xrefTable) readTable(p *parser) (Dict, error) {
	tok := p.next() // "xref"
	for {
		tok = p.next()
		if tok.isKeyword("trailer") {
			break
		}
		t2 := p.next()
		if tok.kind != tokInteger || t2.kind != tokInteger || tok.num < 0 || t2.num < 0 ||
			tok.num+t2.num > math.MaxUint32 {
			return nil, &CorruptXRefError{Pos: tok.pos, Err: errors.New("invalid xref subsection header")}
		}
		start := uint32(tok.num)
		count := int(t2.num)

		for i := range count {
			e, err := readTableEntry(p)
			if err != nil {
				return nil, err
			}
			if i == 0 && start == 1 && e.kind == xrefFree && e.generation == 65535 {
				// a common off-by-one error: the subsection really starts
				// at object 0
				start = 0
			}
			t.add(start+uint32(i), e)
		}
	}

	obj, err := p.readObject()
	if err != nil {
		return nil, &CorruptXRefError{Pos: tok.pos, Err: err}
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, &CorruptXRefError{Pos: tok.pos, Err: errors.New("trailer is not a dictionary")}
	}
	return trailer, nil
}

// readTableEntry reads one entry of a classic cross-reference table.
// Entries are read token by token, so that records which are not exactly
// 20 bytes long are accepted.
func readTableEntry(p *parser) (xrefEntry, error) {
	t1 := p.next()
	t2 := p.next()
	t3 := p.next()
	if t1.kind != tokInteger || t2.kind != tokInteger || t3.kind != tokKeyword || t1.num < 0 || t2.num < 0 {
		return xrefEntry{}, &CorruptXRefError{Pos: t1.pos, Err: errors.New("malformed xref entry")}
	}
	// some writers use 65536 for the generation of object 0
	gen := uint16(min(t2.num, 65535))
	switch string(t3.val) {
	case "n":
		return xrefEntry{kind: xrefInBody, pos: t1.num, generation: gen}, nil
	case "f":
		return xrefEntry{kind: xrefFree, pos: t1.num, generation: gen}, nil
	}
	return xrefEntry{}, &CorruptXRefError{Pos: t3.pos, Err: fmt.Errorf("invalid xref entry type %q", t3.val)}
}

// readStream reads a cross-reference stream.  The stream dictionary
// doubles as the trailer.
func (t *xrefTable) readStream(p *parser, pos int64) (Dict, error) {
	ref, obj, err := p.readIndirectObject()
	if err != nil {
		return nil, &CorruptXRefError{Pos: pos, Err: err}
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, &CorruptXRefError{Pos: pos, Err: errors.New("xref stream expected")}
	}
	dict := stm.Dict
	if tp, _ := dict["Type"].(Name); tp != "XRef" {
		return nil, &CorruptXRefError{Pos: pos, Err: errors.New("xref stream has wrong /Type")}
	}
	t.structural[ref.Number()] = true
	t.xrefStreams[ref.Number()] = true

	w, idx, err := checkXRefStreamDict(dict)
	if err != nil {
		return nil, &CorruptXRefError{Pos: pos, Err: err}
	}

	filters, err := getFilters(nil, dict)
	if err != nil {
		return nil, &CorruptXRefError{Pos: pos, Err: err}
	}
	raw, err := stm.Raw()
	if err != nil {
		return nil, &CorruptXRefError{Pos: pos, Err: err}
	}
	data, err := DecodeBytes(raw, filters)
	if err != nil {
		return nil, &CorruptXRefError{Pos: pos, Err: err}
	}

	err = t.decodeStream(data, w, idx)
	if err != nil {
		return nil, &CorruptXRefError{Pos: pos, Err: err}
	}
	return dict, nil
}

func checkXRefStreamDict(dict Dict) ([]int, []uint32, error) {
	size, ok := dict["Size"].(Integer)
	if !ok || size < 0 || size > math.MaxUint32 {
		return nil, nil, errors.New("invalid /Size in xref stream")
	}

	wArr, _ := dict["W"].(Array)
	if len(wArr) != 3 {
		return nil, nil, errors.New("invalid /W in xref stream")
	}
	w := make([]int, 3)
	for i, obj := range wArr {
		wi, ok := obj.(Integer)
		if !ok || wi < 0 || wi > 8 {
			return nil, nil, errors.New("invalid /W in xref stream")
		}
		w[i] = int(wi)
	}
	if w[1] == 0 {
		return nil, nil, errors.New("invalid /W in xref stream")
	}

	var idx []uint32
	if iArr, ok := dict["Index"].(Array); ok {
		if len(iArr)%2 != 0 {
			return nil, nil, errors.New("invalid /Index in xref stream")
		}
		for _, obj := range iArr {
			v, ok := obj.(Integer)
			if !ok || v < 0 || v > math.MaxUint32 {
				return nil, nil, errors.New("invalid /Index in xref stream")
			}
			idx = append(idx, uint32(v))
		}
	} else {
		idx = []uint32{0, uint32(size)}
	}
	return w, idx, nil
}

func (t *xrefTable) decodeStream(data []byte, w []int, idx []uint32) error {
	rowLen := w[0] + w[1] + w[2]
	for k := 0; k+1 < len(idx); k += 2 {
		start, count := idx[k], idx[k+1]
		for i := range count {
			if len(data) < rowLen {
				return io.ErrUnexpectedEOF
			}
			row := data[:rowLen]
			data = data[rowLen:]

			tp := uint64(1)
			if w[0] > 0 {
				tp = decodeInt(row[:w[0]])
			}
			f2 := decodeInt(row[w[0] : w[0]+w[1]])
			f3 := decodeInt(row[w[0]+w[1]:])

			num := start + i
			switch tp {
			case 0:
				t.add(num, xrefEntry{kind: xrefFree, pos: int64(f2), generation: uint16(min(f3, 65535))})
			case 1:
				t.add(num, xrefEntry{kind: xrefInBody, pos: int64(f2), generation: uint16(min(f3, 65535))})
			case 2:
				if f2 > math.MaxUint32 {
					continue
				}
				t.add(num, xrefEntry{kind: xrefInStream, container: uint32(f2), index: int(f3)})
			default:
				// unknown entry types are references to the null object
			}
		}
	}
	return nil
}

func decodeInt(buf []byte) uint64 {
	var res uint64
	for _, c := range buf {
		res = res<<8 | uint64(c)
	}
	return res
}

// xrefSection collects the entries of a cross-reference section to be
// written.
type xrefSection map[uint32]xrefEntry

// subsections returns the object numbers of the section, split into
// contiguous runs.
func (s xrefSection) subsections() [][]uint32 {
	nums := make([]uint32, 0, len(s))
	for num := range s {
		nums = append(nums, num)
	}
	slices.Sort(nums)

	var res [][]uint32
	for i, num := range nums {
		if i == 0 || num != nums[i-1]+1 {
			res = append(res, nil)
		}
		res[len(res)-1] = append(res[len(res)-1], num)
	}
	return res
}

// writeXRefTable writes a classic cross-reference table and trailer.
func writeXRefTable(w io.Writer, s xrefSection, trailer Dict) error {
	_, err := io.WriteString(w, "xref\n")
	if err != nil {
		return err
	}
	for _, run := range s.subsections() {
		_, err = fmt.Fprintf(w, "%d %d\n", run[0], len(run))
		if err != nil {
			return err
		}
		for _, num := range run {
			e := s[num]
			tp := 'n'
			pos := e.pos
			if e.kind == xrefFree {
				tp = 'f'
			}
			_, err = fmt.Fprintf(w, "%010d %05d %c\r\n", pos, e.generation, tp)
			if err != nil {
				return err
			}
		}
	}
	_, err = io.WriteString(w, "trailer\n")
	if err != nil {
		return err
	}
	err = trailer.PDF(w)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// encodeXRefStream builds the dictionary and payload of a cross-reference
// stream.  The entries of dict are copied into the stream dictionary.
func encodeXRefStream(s xrefSection, dict Dict) (*Stream, error) {
	var maxF2, maxF3 uint64
	for _, e := range s {
		var f2, f3 uint64
		switch e.kind {
		case xrefFree, xrefInBody:
			f2, f3 = uint64(e.pos), uint64(e.generation)
		case xrefInStream:
			f2, f3 = uint64(e.container), uint64(e.index)
		}
		maxF2 = max(maxF2, f2)
		maxF3 = max(maxF3, f3)
	}
	w2 := max((bits.Len64(maxF2)+7)/8, 1)
	w3 := (bits.Len64(maxF3) + 7) / 8
	w := []int{1, w2, w3}

	var index Array
	data := &bytes.Buffer{}
	for _, run := range s.subsections() {
		index = append(index, Integer(run[0]), Integer(len(run)))
		for _, num := range run {
			e := s[num]
			var tp byte
			var f2, f3 uint64
			switch e.kind {
			case xrefFree:
				tp, f2, f3 = 0, uint64(e.pos), uint64(e.generation)
			case xrefInBody:
				tp, f2, f3 = 1, uint64(e.pos), uint64(e.generation)
			case xrefInStream:
				tp, f2, f3 = 2, uint64(e.container), uint64(e.index)
			}
			data.WriteByte(tp)
			encodeInt(data, f2, w[1])
			encodeInt(data, f3, w[2])
		}
	}

	stmDict := dict.Clone()
	stmDict["Type"] = Name("XRef")
	stmDict["W"] = Array{Integer(w[0]), Integer(w[1]), Integer(w[2])}
	stmDict["Index"] = index
	stmDict["Filter"] = Name("FlateDecode")
	raw, err := EncodeBytes(data.Bytes(), []*FilterInfo{FilterFlate})
	if err != nil {
		return nil, err
	}
	return NewStream(stmDict, raw), nil
}

func encodeInt(buf *bytes.Buffer, x uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(x >> (8 * i)))
	}
}
