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
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
)

var (
	objMarker     = regexp.MustCompile(`(?:^|[^0-9])([0-9]{1,10})[ \t\r\n\f\x00]+([0-9]{1,5})[ \t\r\n\f\x00]+obj\b`)
	trailerMarker = regexp.MustCompile(`\btrailer[ \t\r\n\f\x00]*<<`)
)

const (
	scanChunk   = 1 << 16
	scanOverlap = 64
)

// scanFile calls fn for every match of re in the file.  The argument of fn
// is the file offset of the first submatch, or of the whole match if re
// has no submatches.
func scanFile(r io.ReaderAt, size int64, re *regexp.Regexp, fn func(pos int64, m [][]byte)) {
	buf := make([]byte, scanChunk)
	start := int64(0)
	for start < size {
		end := min(start+scanChunk, size)
		n, _ := r.ReadAt(buf[:end-start], start)
		chunk := buf[:n]
		if n == 0 {
			return
		}

		limit := len(chunk)
		last := end >= size
		if !last {
			limit -= scanOverlap
		}
		for _, idx := range re.FindAllSubmatchIndex(chunk, -1) {
			key := idx[0]
			if len(idx) > 2 {
				key = idx[2]
			}
			if key >= limit {
				break
			}
			if start > 0 && key == 0 {
				// the previous chunk has seen this position, with context
				continue
			}
			m := make([][]byte, len(idx)/2)
			for i := range m {
				if idx[2*i] >= 0 {
					m[i] = chunk[idx[2*i]:idx[2*i+1]]
				}
			}
			fn(start+int64(key), m)
		}
		if last {
			return
		}
		start += int64(limit) - 1
	}
}

// reconstructXRef builds a cross-reference table by scanning the whole file
// for "N G obj" markers.  This is used when the cross-reference information
// of a file is missing or damaged.  Later definitions of an object take
// precedence over earlier ones.
//
// The returned list contains the object streams found in the file.  These
// cannot be indexed here, since their contents may be encrypted.
func reconstructXRef(p *parser) (*xrefTable, []uint32, error) {
	lex := p.lex
	t := newXRefTable()

	scanFile(lex.r, lex.size, objMarker, func(pos int64, m [][]byte) {
		num, err1 := strconv.ParseUint(string(m[1]), 10, 32)
		gen, err2 := strconv.ParseUint(string(m[2]), 10, 16)
		if err1 != nil || err2 != nil {
			return
		}
		t.entries[uint32(num)] = xrefEntry{kind: xrefInBody, pos: pos, generation: uint16(gen)}
	})
	if len(t.entries) == 0 {
		return nil, nil, &CorruptXRefError{Err: errors.New("no objects found")}
	}

	type trailerCandidate struct {
		pos  int64
		dict Dict
	}
	var candidates []trailerCandidate
	var objStms []uint32
	var catalog Reference
	catalogHasPages := false

	nums := make([]uint32, 0, len(t.entries))
	for num := range t.entries {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	for _, num := range nums {
		e := t.entries[num]
		p.seek(e.pos)
		ref, obj, err := p.readIndirectObject()
		if err != nil || ref != NewReference(num, e.generation) {
			delete(t.entries, num)
			continue
		}

		switch obj := obj.(type) {
		case Dict:
			if tp, _ := obj["Type"].(Name); tp == "Catalog" {
				_, hasPages := obj["Pages"]
				if catalog == 0 || hasPages && !catalogHasPages {
					catalog = ref
					catalogHasPages = hasPages
				}
			}
		case *Stream:
			switch tp, _ := obj.Dict["Type"].(Name); tp {
			case "XRef":
				t.structural[num] = true
				t.xrefStreams[num] = true
				candidates = append(candidates, trailerCandidate{e.pos, obj.Dict})
			case "ObjStm":
				t.structural[num] = true
				objStms = append(objStms, num)
			}
		}
	}

	scanFile(lex.r, lex.size, trailerMarker, func(pos int64, _ [][]byte) {
		p.seek(pos + int64(len("trailer")))
		obj, err := p.readObject()
		if dict, ok := obj.(Dict); err == nil && ok {
			candidates = append(candidates, trailerCandidate{pos, dict})
		}
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].pos < candidates[j].pos
	})

	trailer := Dict{}
	for _, c := range candidates {
		for _, key := range []Name{"Root", "Info", "Encrypt", "ID"} {
			if val, ok := c.dict[key]; ok {
				trailer[key] = val
			}
		}
	}
	root, hasRoot := trailer["Root"].(Reference)
	switch {
	case hasRoot && t.isLive(root):
		// use the /Root from the trailer
	case len(objStms) > 0:
		// The catalog may be stored in an object stream.  The graph checks
		// /Root again once the object streams are indexed.
		if !hasRoot && catalog != 0 {
			trailer["Root"] = catalog
		}
	case catalog != 0:
		trailer["Root"] = catalog
	default:
		return nil, nil, &CorruptXRefError{Err: errors.New("document catalog not found")}
	}
	t.trailer = trailer
	t.trailer["Size"] = Integer(t.size())

	p.recovered(&CorruptXRefError{
		Err: errors.New("cross-reference table reconstructed from " +
			strconv.Itoa(len(t.entries)) + " objects"),
	})
	return t, objStms, nil
}

// isLive reports whether ref is present in the table with a matching
// generation, either in the file body or inside an object stream.
func (t *xrefTable) isLive(ref Reference) bool {
	_, ok := t.lookup(ref)
	return ok
}
