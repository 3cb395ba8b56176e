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

// Package lzw implements the LZW compression used by the PDF LZWDecode
// filter.
//
// Codes are between 9 and 12 bits wide and packed MSB first.  Code 256
// clears the table and code 257 marks the end of data.  With "early change"
// (the PDF default), the code width increases one code earlier than in
// the original LZW algorithm.
package lzw

import (
	"bufio"
	"errors"
	"io"
)

const (
	clearCode = 256
	eodCode   = 257
	firstCode = 258
	maxWidth  = 12
	tableSize = 1 << maxWidth
)

// NewReader returns a reader which decompresses the LZW data read from r.
func NewReader(r io.Reader, earlyChange bool) io.ReadCloser {
	dec := &reader{
		r:     bufio.NewReader(r),
		early: 0,
	}
	if earlyChange {
		dec.early = 1
	}
	dec.reset()
	return dec
}

type reader struct {
	r     *bufio.Reader
	early int
	err   error

	acc   uint32
	nbits int

	table [][]byte
	width int
	prev  int

	out []byte
}

func (d *reader) reset() {
	if d.table == nil {
		d.table = make([][]byte, firstCode, tableSize)
		for i := range 256 {
			d.table[i] = []byte{byte(i)}
		}
	}
	d.table = d.table[:firstCode]
	d.width = 9
	d.prev = -1
}

func (d *reader) readCode() (int, error) {
	for d.nbits < d.width {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}
		d.acc = d.acc<<8 | uint32(b)
		d.nbits += 8
	}
	d.nbits -= d.width
	code := int(d.acc>>d.nbits) & (1<<d.width - 1)
	return code, nil
}

func (d *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(d.out) > 0 {
			k := copy(p[n:], d.out)
			d.out = d.out[k:]
			n += k
			continue
		}
		if d.err != nil {
			break
		}
		d.err = d.step()
	}
	if n > 0 {
		return n, nil
	}
	return 0, d.err
}

// step decodes one code.
func (d *reader) step() error {
	code, err := d.readCode()
	if err != nil {
		// a missing EOD code is tolerated
		return io.EOF
	}

	switch {
	case code == clearCode:
		d.reset()
		return nil
	case code == eodCode:
		return io.EOF
	case d.prev < 0:
		if code >= len(d.table) {
			return errInvalidCode
		}
		d.out = d.table[code]
		d.prev = code
		return nil
	}

	var entry []byte
	if code < len(d.table) {
		entry = d.table[code]
	} else if code == len(d.table) {
		prev := d.table[d.prev]
		entry = append(prev[:len(prev):len(prev)], prev[0])
	} else {
		return errInvalidCode
	}

	if len(d.table) < tableSize {
		prev := d.table[d.prev]
		d.table = append(d.table, append(prev[:len(prev):len(prev)], entry[0]))
		if len(d.table)+d.early >= 1<<d.width && d.width < maxWidth {
			d.width++
		}
	}
	d.out = entry
	d.prev = code
	return nil
}

// Close implements the [io.Closer] interface.
func (d *reader) Close() error {
	if d.err == nil || d.err == io.EOF {
		return nil
	}
	return d.err
}

type key struct {
	prefix int
	b      byte
}

// NewWriter returns a writer which compresses data and writes it to w.
// Closing the returned writer writes the end-of-data code; it does not
// close w.
func NewWriter(w io.Writer, earlyChange bool) (io.WriteCloser, error) {
	enc := &writer{
		w:      w,
		prefix: -1,
	}
	if earlyChange {
		enc.early = 1
	}
	enc.reset()
	err := enc.emit(clearCode)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

type writer struct {
	w     io.Writer
	early int

	acc   uint64
	nbits int
	buf   []byte

	table    map[key]int
	nextCode int
	width    int
	prefix   int
}

func (e *writer) reset() {
	e.table = make(map[key]int)
	e.nextCode = firstCode
	e.width = 9
}

func (e *writer) emit(code int) error {
	e.acc = e.acc<<e.width | uint64(code)
	e.nbits += e.width
	for e.nbits >= 8 {
		e.nbits -= 8
		e.buf = append(e.buf, byte(e.acc>>e.nbits))
	}
	e.acc &= 1<<e.nbits - 1
	if len(e.buf) >= 512 {
		return e.flush()
	}
	return nil
}

// emitPrefix writes the current prefix and accounts for the table entry
// the decoder will create for it.
func (e *writer) emitPrefix() error {
	err := e.emit(e.prefix)
	if err != nil {
		return err
	}
	e.nextCode++
	if e.nextCode-1+e.early >= 1<<e.width && e.width < maxWidth {
		e.width++
	}
	return nil
}

func (e *writer) flush() error {
	_, err := e.w.Write(e.buf)
	e.buf = e.buf[:0]
	return err
}

func (e *writer) Write(p []byte) (int, error) {
	for i, b := range p {
		if e.prefix < 0 {
			e.prefix = int(b)
			continue
		}
		k := key{e.prefix, b}
		if code, ok := e.table[k]; ok {
			e.prefix = code
			continue
		}

		if e.nextCode < tableSize {
			e.table[k] = e.nextCode
		}
		err := e.emitPrefix()
		if err != nil {
			return i, err
		}
		if e.nextCode >= tableSize {
			err = e.emit(clearCode)
			if err != nil {
				return i, err
			}
			e.reset()
		}
		e.prefix = int(b)
	}
	return len(p), nil
}

func (e *writer) Close() error {
	if e.prefix >= 0 {
		err := e.emitPrefix()
		if err != nil {
			return err
		}
		e.prefix = -1
	}
	err := e.emit(eodCode)
	if err != nil {
		return err
	}
	if e.nbits > 0 {
		e.buf = append(e.buf, byte(e.acc<<(8-e.nbits)))
		e.nbits = 0
		e.acc = 0
	}
	return e.flush()
}

var errInvalidCode = errors.New("invalid LZW code")
