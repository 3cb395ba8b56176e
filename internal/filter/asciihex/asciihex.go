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

// Package asciihex implements the ASCIIHexDecode filter.
package asciihex

import (
	"bufio"
	"fmt"
	"io"
)

// Decode returns a reader which decodes ASCII hexadecimal data read from r.
// White space is ignored, and a missing final digit is taken to be zero.
func Decode(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r   *bufio.Reader
	err error
}

func (r *reader) Read(p []byte) (n int, err error) {
	haveHigh := false
	var high byte
	for n < len(p) && r.err == nil {
		c, err := r.r.ReadByte()
		if err != nil {
			// a missing end marker is tolerated
			r.err = err
			break
		}

		var b byte
		switch {
		case c >= '0' && c <= '9':
			b = c - '0'
		case c >= 'A' && c <= 'F':
			b = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			b = c - 'a' + 10
		case c == 0 || c == 9 || c == 10 || c == 12 || c == 13 || c == 32:
			continue
		case c == '>':
			r.err = io.EOF
			continue
		default:
			r.err = fmt.Errorf("invalid hex character %q", c)
			continue
		}

		if haveHigh {
			p[n] = high<<4 | b
			n++
			haveHigh = false
		} else {
			high = b
			haveHigh = true
		}
	}
	if haveHigh {
		p[n] = high << 4
		n++
	}
	if n > 0 && r.err == io.EOF {
		return n, nil
	}
	return n, r.err
}

// Encode returns a writer which writes hexadecimal data to w.
// Closing the writer appends the end-of-data marker and closes w.
func Encode(w io.WriteCloser) io.WriteCloser {
	return &writer{w: w}
}

type writer struct {
	w   io.WriteCloser
	col int
	buf []byte
}

const hexDigits = "0123456789abcdef"

func (w *writer) Write(p []byte) (int, error) {
	w.buf = w.buf[:0]
	for _, b := range p {
		w.buf = append(w.buf, hexDigits[b>>4], hexDigits[b&15])
		w.col += 2
		if w.col >= 64 {
			w.buf = append(w.buf, '\n')
			w.col = 0
		}
	}
	_, err := w.w.Write(w.buf)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *writer) Close() error {
	_, err := w.w.Write([]byte{'>'})
	if err != nil {
		return err
	}
	return w.w.Close()
}
