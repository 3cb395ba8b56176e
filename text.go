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
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// AsTextString interprets x as a PDF "text string" and returns
// the corresponding utf-8 encoded string.
//
// Text strings are either UTF-16BE with a byte order mark, UTF-8 with a
// byte order mark (PDF 2.0), or PDFDocEncoding.
func (x String) AsTextString() string {
	switch {
	case bytes.HasPrefix(x, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(x)
		if err == nil {
			return string(out)
		}
	case bytes.HasPrefix(x, []byte{0xEF, 0xBB, 0xBF}):
		if utf8.Valid(x[3:]) {
			return string(x[3:])
		}
	}
	return pdfDocDecode(x)
}

// TextString encodes s as a PDF text string.  PDFDocEncoding is used where
// possible, and UTF-16BE otherwise.
func TextString(s string) String {
	if buf, ok := pdfDocEncode(s); ok {
		return buf
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		// only possible for invalid utf-8; encode the replacement chars
		out, _ = enc.Bytes(bytes.ToValidUTF8([]byte(s), []byte("�")))
	}
	return String(out)
}

func pdfDocDecode(s String) string {
	r := make([]rune, len(s))
	for i, c := range s {
		r[i] = pdfDocRune(c)
	}
	return string(r)
}

func pdfDocEncode(s string) (String, bool) {
	res := make(String, 0, len(s))
	for _, r := range s {
		c, ok := pdfDocByte[r]
		if !ok {
			return nil, false
		}
		res = append(res, c)
	}
	return res, true
}

func pdfDocRune(c byte) rune {
	if r, ok := pdfDocSpecial[c]; ok {
		return r
	}
	return rune(c)
}

// pdfDocSpecial lists the code points where PDFDocEncoding differs from
// ISO Latin-1.
var pdfDocSpecial = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1a: 'ˆ', 0x1b: '˙', 0x1c: '˝', 0x1d: '˛', 0x1e: '˚', 0x1f: '˜',
	0x7f: utf8.RuneError,
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…', 0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8a: '−', 0x8b: '‰', 0x8c: '„', 0x8d: '“', 0x8e: '”', 0x8f: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ', 0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9a: 'ı', 0x9b: 'ł', 0x9c: 'œ', 0x9d: 'š', 0x9e: 'ž',
	0x9f: utf8.RuneError,
	0xa0: '€', 0xad: utf8.RuneError,
}

var pdfDocByte = func() map[rune]byte {
	res := make(map[rune]byte, 256)
	for i := 0; i < 256; i++ {
		c := byte(i)
		r := pdfDocRune(c)
		if r == utf8.RuneError {
			continue
		}
		if c < 0x18 && c != '\t' && c != '\n' && c != '\r' {
			continue
		}
		res[r] = c
	}
	return res
}()
