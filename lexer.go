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
	"io"
	"math"
	"strconv"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokGarbage
	tokInteger
	tokReal
	tokString
	tokHexString
	tokName
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
	tokKeyword
)

// token is a lexical token of the PDF file syntax.
type token struct {
	kind tokenKind
	pos  int64
	val  []byte // contents of strings, names, keywords and garbage
	num  int64
	real float64
}

func (t token) isKeyword(kw string) bool {
	return t.kind == tokKeyword && string(t.val) == kw
}

const lexerWindow = 4096

// lexer splits the contents of a PDF file into tokens.
//
// The lexer never fails: bytes which cannot start a token are returned as
// tokGarbage, and the end of input is signalled by tokEOF.
type lexer struct {
	r    io.ReaderAt
	size int64

	buf   []byte
	start int64 // file offset of buf[0]

	pos int64
}

func newLexer(r io.ReaderAt, size int64) *lexer {
	return &lexer{
		r:    r,
		size: size,
		buf:  make([]byte, 0, lexerWindow),
	}
}

// seek sets the position for the next token.
func (l *lexer) seek(pos int64) {
	l.pos = pos
}

// byteAt returns the byte at the given file offset.
// The second return value is false at (or after) the end of input.
func (l *lexer) byteAt(pos int64) (byte, bool) {
	if pos < 0 || pos >= l.size {
		return 0, false
	}
	if pos < l.start || pos >= l.start+int64(len(l.buf)) {
		n := min(int64(cap(l.buf)), l.size-pos)
		l.buf = l.buf[:n]
		k, _ := l.r.ReadAt(l.buf, pos)
		l.buf = l.buf[:k]
		l.start = pos
		if k == 0 {
			return 0, false
		}
	}
	return l.buf[pos-l.start], true
}

func (l *lexer) peek() (byte, bool) {
	return l.byteAt(l.pos)
}

// skipWhiteSpace skips white space and comments.
func (l *lexer) skipWhiteSpace() {
	for {
		c, ok := l.peek()
		if !ok {
			return
		}
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for {
				l.pos++
				c, ok = l.peek()
				if !ok || c == '\n' || c == '\r' {
					break
				}
			}
		default:
			return
		}
	}
}

// skipEOL skips a single end-of-line marker, if present.
func (l *lexer) skipEOL() {
	c, ok := l.peek()
	if ok && c == '\r' {
		l.pos++
		c, ok = l.peek()
	}
	if ok && c == '\n' {
		l.pos++
	}
}

// next returns the next token from the input.
func (l *lexer) next() token {
	l.skipWhiteSpace()

	start := l.pos
	c, ok := l.peek()
	if !ok {
		return token{kind: tokEOF, pos: start}
	}

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokString, pos: start, val: l.readLiteralString()}
	case c == '<':
		l.pos++
		if c2, _ := l.peek(); c2 == '<' {
			l.pos++
			return token{kind: tokDictStart, pos: start}
		}
		return token{kind: tokHexString, pos: start, val: l.readHexString()}
	case c == '>':
		l.pos++
		if c2, _ := l.peek(); c2 == '>' {
			l.pos++
			return token{kind: tokDictEnd, pos: start}
		}
		return token{kind: tokGarbage, pos: start, val: []byte{c}}
	case c == '[':
		l.pos++
		return token{kind: tokArrayStart, pos: start}
	case c == ']':
		l.pos++
		return token{kind: tokArrayEnd, pos: start}
	case c == '/':
		l.pos++
		return token{kind: tokName, pos: start, val: l.readName()}
	case isDelimiter(c):
		// ')' and the PostScript braces are not valid here.
		l.pos++
		return token{kind: tokGarbage, pos: start, val: []byte{c}}
	case c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.':
		return l.readNumber()
	}

	run := l.readRegular()
	for _, b := range run {
		if b < 0x21 || b > 0x7e {
			return token{kind: tokGarbage, pos: start, val: run}
		}
	}
	return token{kind: tokKeyword, pos: start, val: run}
}

func (l *lexer) readRegular() []byte {
	var res []byte
	for {
		c, ok := l.peek()
		if !ok || isSpace(c) || isDelimiter(c) {
			return res
		}
		res = append(res, c)
		l.pos++
	}
}

// readNumber reads a numeric token.  Malformed numbers like "--5",
// "1.2.3" or "." are converted to a best-effort value.
func (l *lexer) readNumber() token {
	start := l.pos
	var run []byte
	for {
		c, ok := l.peek()
		if !ok || !(c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			break
		}
		run = append(run, c)
		l.pos++
	}

	neg := false
	i := 0
	for i < len(run) && (run[i] == '+' || run[i] == '-') {
		if run[i] == '-' {
			neg = true
		}
		i++
	}

	var intPart, fracPart []byte
	seenDot := false
	for ; i < len(run); i++ {
		c := run[i]
		switch {
		case c == '.' && !seenDot:
			seenDot = true
		case c == '.':
			i = len(run) // ignore everything after a second dot
		case c == '+' || c == '-':
			// misplaced signs are ignored
		case seenDot:
			fracPart = append(fracPart, c)
		default:
			intPart = append(intPart, c)
		}
	}

	if !seenDot {
		var v int64
		overflow := false
		for _, c := range intPart {
			d := int64(c - '0')
			if v > (math.MaxInt64-d)/10 {
				overflow = true
				break
			}
			v = 10*v + d
		}
		if !overflow {
			if neg {
				v = -v
			}
			return token{kind: tokInteger, pos: start, num: v}
		}
	}

	s := string(intPart)
	if s == "" {
		s = "0"
	}
	if len(fracPart) > 0 {
		s += "." + string(fracPart)
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// ParseFloat only fails on range errors here, and then x is ±Inf
		x = math.MaxFloat64
	}
	if neg {
		x = -x
	}
	return token{kind: tokReal, pos: start, real: x}
}

// readLiteralString reads a string in parentheses.  The opening parenthesis
// has already been consumed.
func (l *lexer) readLiteralString() []byte {
	var res []byte
	level := 1
	for {
		c, ok := l.peek()
		if !ok {
			return res
		}
		l.pos++

		switch c {
		case '(':
			level++
		case ')':
			level--
			if level == 0 {
				return res
			}
		case '\r':
			// unescaped CR and CRLF are read as LF
			if c2, _ := l.peek(); c2 == '\n' {
				l.pos++
			}
			c = '\n'
		case '\\':
			c, ok = l.peek()
			if !ok {
				return res
			}
			l.pos++
			switch c {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r':
				if c2, _ := l.peek(); c2 == '\n' {
					l.pos++
				}
				continue
			case '\n':
				continue
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(c - '0')
				for range 2 {
					c2, ok := l.peek()
					if !ok || c2 < '0' || c2 > '7' {
						break
					}
					v = 8*v + int(c2-'0')
					l.pos++
				}
				c = byte(v)
			}
		}
		res = append(res, c)
	}
}

// readHexString reads a hexadecimal string.  The opening '<' has already
// been consumed.  Invalid characters are ignored and a missing final
// digit is taken to be zero.
func (l *lexer) readHexString() []byte {
	var res []byte
	var hi byte
	haveHi := false
	for {
		c, ok := l.peek()
		if !ok {
			break
		}
		l.pos++
		if c == '>' {
			break
		}
		d, ok := unhex(c)
		if !ok {
			continue
		}
		if haveHi {
			res = append(res, hi<<4|d)
			haveHi = false
		} else {
			hi = d
			haveHi = true
		}
	}
	if haveHi {
		res = append(res, hi<<4)
	}
	return res
}

// readName reads a name.  The leading '/' has already been consumed.
func (l *lexer) readName() []byte {
	run := l.readRegular()
	if bytes.IndexByte(run, '#') < 0 {
		return run
	}
	res := make([]byte, 0, len(run))
	for i := 0; i < len(run); i++ {
		c := run[i]
		if c == '#' && i+2 < len(run) {
			d1, ok1 := unhex(run[i+1])
			d2, ok2 := unhex(run[i+2])
			if ok1 && ok2 {
				res = append(res, d1<<4|d2)
				i += 2
				continue
			}
		}
		res = append(res, c)
	}
	return res
}

// findKeyword searches forward from pos for the given keyword.  The keyword
// must be preceded by white space (or be at pos) and followed by white space,
// a delimiter or the end of input.  The offset of the keyword is returned.
func (l *lexer) findKeyword(pos int64, kw string) (int64, bool) {
	k := int64(len(kw))
	for p := pos; p+k <= l.size; p++ {
		if c, _ := l.byteAt(p); c != kw[0] {
			continue
		}
		match := true
		for j := int64(1); j < k; j++ {
			c, _ := l.byteAt(p + j)
			if c != kw[j] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if p > pos {
			if c, _ := l.byteAt(p - 1); !isSpace(c) {
				continue
			}
		}
		if c, ok := l.byteAt(p + k); ok && !isSpace(c) && !isDelimiter(c) {
			continue
		}
		return p, true
	}
	return 0, false
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

func isSpace(c byte) bool {
	switch c {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
