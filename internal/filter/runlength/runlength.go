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

// Package runlength implements the RunLengthDecode filter.
package runlength

import (
	"bufio"
	"io"
)

// Decode returns a reader which decodes run-length encoded data from r.
func Decode(r io.Reader) io.Reader {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r   *bufio.Reader
	err error

	literal bool
	count   int
	value   byte
}

func (r *reader) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if r.count == 0 {
			if r.err != nil {
				break
			}
			r.err = r.nextRun()
			continue
		}

		k := min(r.count, len(p)-n)
		if r.literal {
			k, err = io.ReadFull(r.r, p[n:n+k])
			if err != nil {
				r.err = io.ErrUnexpectedEOF
				r.count = k
			}
		} else {
			for i := range k {
				p[n+i] = r.value
			}
		}
		n += k
		r.count -= k
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *reader) nextRun() error {
	length, err := r.r.ReadByte()
	if err != nil {
		// a missing EOD marker is tolerated
		return io.EOF
	}
	switch {
	case length == 128:
		return io.EOF
	case length < 128:
		r.literal = true
		r.count = int(length) + 1
	default:
		b, err := r.r.ReadByte()
		if err != nil {
			return io.ErrUnexpectedEOF
		}
		r.literal = false
		r.value = b
		r.count = 257 - int(length)
	}
	return nil
}

// Encode returns a writer which run-length encodes data and writes the
// result to w.  Close writes the end-of-data marker and closes w.
func Encode(w io.WriteCloser) io.WriteCloser {
	return &writer{w: w}
}

type writer struct {
	w io.WriteCloser

	lit    []byte // pending literal bytes
	runVal byte
	runLen int
}

func (w *writer) Write(p []byte) (int, error) {
	for _, b := range p {
		if w.runLen > 0 {
			if b == w.runVal && w.runLen < 128 {
				w.runLen++
				continue
			}
			if err := w.flushRun(); err != nil {
				return 0, err
			}
		}

		w.lit = append(w.lit, b)
		n := len(w.lit)
		if n >= 3 && w.lit[n-1] == w.lit[n-2] && w.lit[n-2] == w.lit[n-3] {
			w.lit = w.lit[:n-3]
			if err := w.flushLiteral(); err != nil {
				return 0, err
			}
			w.runVal = b
			w.runLen = 3
		} else if n == 128 {
			if err := w.flushLiteral(); err != nil {
				return 0, err
			}
		}
	}
	return len(p), nil
}

func (w *writer) flushLiteral() error {
	if len(w.lit) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(w.lit)+1)
	buf = append(buf, byte(len(w.lit)-1))
	buf = append(buf, w.lit...)
	w.lit = w.lit[:0]
	_, err := w.w.Write(buf)
	return err
}

func (w *writer) flushRun() error {
	_, err := w.w.Write([]byte{byte(257 - w.runLen), w.runVal})
	w.runLen = 0
	return err
}

func (w *writer) Close() error {
	if w.runLen > 0 {
		if err := w.flushRun(); err != nil {
			return err
		}
	}
	if err := w.flushLiteral(); err != nil {
		return err
	}
	if _, err := w.w.Write([]byte{128}); err != nil {
		return err
	}
	return w.w.Close()
}
