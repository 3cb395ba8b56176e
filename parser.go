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
	"fmt"
	"io"
	"math"
)

const maxNesting = 256

// parser reads PDF objects from a lexer.
//
// References are not resolved.  Stream payloads are not read; instead the
// returned streams load their data on first use.
type parser struct {
	lex  *lexer
	back []token

	// getLength resolves an indirect /Length entry in a stream dictionary.
	// If this is nil, indirect lengths are treated as missing.
	getLength func(ref Reference) (int64, bool)

	// noStreams is set when reading the contents of object streams.
	noStreams bool

	// warn receives errors which could be recovered from.
	warn func(error)
}

func newParser(r io.ReaderAt, size int64) *parser {
	return &parser{lex: newLexer(r, size)}
}

func (p *parser) seek(pos int64) {
	p.back = p.back[:0]
	p.lex.seek(pos)
}

func (p *parser) next() token {
	if n := len(p.back); n > 0 {
		t := p.back[n-1]
		p.back = p.back[:n-1]
		return t
	}
	return p.lex.next()
}

func (p *parser) unread(t token) {
	p.back = append(p.back, t)
}

// pos returns the offset of the next unread token, or the current
// lexer position if no tokens are pushed back.
func (p *parser) pos() int64 {
	if n := len(p.back); n > 0 {
		return p.back[n-1].pos
	}
	return p.lex.pos
}

func (p *parser) errorf(pos int64, format string, args ...any) error {
	return &MalformedFileError{Pos: pos, Err: fmt.Errorf(format, args...)}
}

// readObject reads one direct object.
func (p *parser) readObject() (Object, error) {
	return p.parse(p.next(), 0)
}

func (p *parser) parse(t token, depth int) (Object, error) {
	if depth > maxNesting {
		return nil, p.errorf(t.pos, "objects nested too deeply")
	}

	switch t.kind {
	case tokEOF:
		return nil, &MalformedFileError{Pos: t.pos, Err: io.ErrUnexpectedEOF}
	case tokInteger:
		if ref, ok := p.tryReference(t); ok {
			return ref, nil
		}
		return Integer(t.num), nil
	case tokReal:
		return Real(t.real), nil
	case tokString, tokHexString:
		return String(t.val), nil
	case tokName:
		return Name(t.val), nil
	case tokArrayStart:
		return p.parseArray(t, depth)
	case tokDictStart:
		return p.parseDict(t, depth)
	case tokKeyword:
		switch string(t.val) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return nil, nil
		}
		return nil, p.errorf(t.pos, "unexpected keyword %q", t.val)
	}
	return nil, p.errorf(t.pos, "unexpected input %q", t.val)
}

// tryReference checks whether t starts an indirect reference "n g R".
func (p *parser) tryReference(t token) (Reference, bool) {
	if t.num < 0 || t.num > math.MaxUint32 {
		return 0, false
	}
	t2 := p.next()
	if t2.kind != tokInteger || t2.num < 0 || t2.num > math.MaxUint16 {
		p.unread(t2)
		return 0, false
	}
	t3 := p.next()
	if !t3.isKeyword("R") {
		p.unread(t3)
		p.unread(t2)
		return 0, false
	}
	return NewReference(uint32(t.num), uint16(t2.num)), true
}

func (p *parser) parseArray(start token, depth int) (Array, error) {
	res := Array{}
	for {
		t := p.next()
		switch t.kind {
		case tokArrayEnd:
			return res, nil
		case tokEOF:
			return nil, p.errorf(start.pos, "unterminated array")
		case tokGarbage:
			p.recovered(p.errorf(t.pos, "skipped %q in array", t.val))
			continue
		}
		obj, err := p.parse(t, depth+1)
		if err != nil {
			return nil, err
		}
		res = append(res, obj)
	}
}

func (p *parser) parseDict(start token, depth int) (Dict, error) {
	res := Dict{}
	for {
		t := p.next()
		switch t.kind {
		case tokDictEnd:
			return res, nil
		case tokEOF:
			return nil, p.errorf(start.pos, "unterminated dictionary")
		case tokName:
			// handled below
		case tokGarbage:
			p.recovered(p.errorf(t.pos, "skipped %q in dictionary", t.val))
			continue
		default:
			return nil, p.errorf(t.pos, "dictionary key is not a name")
		}

		key := Name(t.val)
		vt := p.next()
		if vt.kind == tokDictEnd {
			// missing value, treated as null
			return res, nil
		}
		val, err := p.parse(vt, depth+1)
		if err != nil {
			return nil, err
		}
		if val != nil {
			res[key] = val
		}
	}
}

// readIndirectObject reads an object of the form "n g obj ... endobj".
// The position must be at the start of the object header.
func (p *parser) readIndirectObject() (Reference, Object, error) {
	t1 := p.next()
	t2 := p.next()
	t3 := p.next()
	if t1.kind != tokInteger || t2.kind != tokInteger || !t3.isKeyword("obj") ||
		t1.num < 0 || t1.num > math.MaxUint32 || t2.num < 0 || t2.num > math.MaxUint16 {
		return 0, nil, p.errorf(t1.pos, "invalid object header")
	}
	ref := NewReference(uint32(t1.num), uint16(t2.num))

	t := p.next()
	if t.isKeyword("endobj") {
		// empty object, treated as null
		return ref, nil, nil
	}
	obj, err := p.parse(t, 0)
	if err != nil {
		return ref, nil, err
	}

	t = p.next()
	if dict, isDict := obj.(Dict); isDict && t.isKeyword("stream") {
		if p.noStreams {
			return ref, nil, p.errorf(t.pos, "stream not allowed here")
		}
		stm, err := p.readStream(dict, ref)
		if err != nil {
			return ref, nil, err
		}
		obj = stm
		t = p.next()
	}
	if !t.isKeyword("endobj") {
		p.unread(t)
		p.recovered(p.errorf(t.pos, "object %s: missing endobj", ref))
	}

	return ref, obj, nil
}

// readStream sets up the payload of a stream object.  The "stream" keyword
// has just been read.
func (p *parser) readStream(dict Dict, ref Reference) (*Stream, error) {
	lex := p.lex
	for {
		c, ok := lex.peek()
		if !ok || c != ' ' {
			break
		}
		lex.pos++
	}
	lex.skipEOL()
	start := lex.pos

	length, ok := p.streamLength(dict)
	if ok && !p.endstreamAt(start+length) {
		ok = false
	}
	if !ok {
		end, found := lex.findKeyword(start, "endstream")
		if !found {
			return nil, p.errorf(start, "object %s: stream data not terminated", ref)
		}
		length = end - start
		if c, _ := lex.byteAt(start + length - 1); length > 0 && c == '\n' {
			length--
		}
		if c, _ := lex.byteAt(start + length - 1); length > 0 && c == '\r' {
			length--
		}
		p.recovered(&MalformedFileError{
			Pos: start,
			Loc: []string{"object " + ref.String()},
			Err: errors.New("wrong /Length, recovered by scanning for endstream"),
		})
		lex.seek(end)
	} else {
		lex.seek(start + length)
	}
	t := p.next()
	if !t.isKeyword("endstream") {
		return nil, p.errorf(t.pos, "object %s: missing endstream", ref)
	}

	r := lex.r
	stm := &Stream{Dict: dict}
	stm.load = func() ([]byte, error) {
		data := make([]byte, length)
		n, err := r.ReadAt(data, start)
		if n < len(data) {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, &MalformedFileError{Pos: start, Err: err}
		}
		return data, nil
	}
	return stm, nil
}

func (p *parser) streamLength(dict Dict) (int64, bool) {
	switch l := dict["Length"].(type) {
	case Integer:
		return int64(l), l >= 0
	case Reference:
		if p.getLength != nil {
			return p.getLength(l)
		}
	}
	return 0, false
}

// endstreamAt checks whether the "endstream" keyword follows the given
// offset, possibly after white space.
func (p *parser) endstreamAt(pos int64) bool {
	if pos > p.lex.size {
		return false
	}
	save := p.lex.pos
	defer p.lex.seek(save)

	p.lex.seek(pos)
	t := p.lex.next()
	return t.isKeyword("endstream")
}

func (p *parser) recovered(err error) {
	if p.warn != nil {
		p.warn(err)
	}
}
