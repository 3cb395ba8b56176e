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

package predict

import (
	"bufio"
	"fmt"
	"io"
)

// NewReader returns a reader which undoes the prediction on the data read
// from r.
func NewReader(r io.Reader, p *Params) (io.Reader, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return r, nil
	}

	n := p.bytesPerRow()
	res := &reader{
		r:    bufio.NewReader(r),
		p:    p,
		prev: make([]byte, n),
		cur:  make([]byte, n),
	}
	if p.Predictor >= 10 {
		res.in = make([]byte, n+1)
	} else {
		res.in = make([]byte, n)
	}
	return res, nil
}

type reader struct {
	r   *bufio.Reader
	p   *Params
	err error

	in        []byte
	prev, cur []byte
	avail     []byte
}

func (r *reader) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if len(r.avail) == 0 {
			if r.err != nil {
				return n, r.err
			}
			r.err = r.nextRow()
			continue
		}
		k := copy(buf[n:], r.avail)
		r.avail = r.avail[k:]
		n += k
	}
	return n, nil
}

func (r *reader) nextRow() error {
	k, err := io.ReadFull(r.r, r.in)
	if err == io.ErrUnexpectedEOF {
		// A short last row is decoded as far as possible.
		clear(r.in[k:])
	} else if err != nil {
		return err
	}

	r.prev, r.cur = r.cur, r.prev
	rowLen := k
	if r.p.Predictor == 2 {
		copy(r.cur, r.in)
		r.undoTIFF(r.cur)
	} else {
		err := r.undoPNG(r.in[0], r.in[1:], r.cur)
		if err != nil {
			return err
		}
		rowLen = k - 1
	}
	r.avail = r.cur[:rowLen]

	if k < len(r.in) {
		// The data ended inside this row.
		return io.EOF
	}
	return nil
}

func (r *reader) undoTIFF(row []byte) {
	p := r.p
	nc := p.Colors
	mask := p.mask()
	n := p.numComponents(row)
	for i := nc; i < n; i++ {
		v := p.component(row, i) + p.component(row, i-nc)
		p.setComponent(row, i, v&mask)
	}
}

func (r *reader) undoPNG(tag byte, in, out []byte) error {
	bpp := r.p.bytesPerPixel()
	prev := r.prev
	for i := range in {
		var a, c byte
		if i >= bpp {
			a = out[i-bpp]
			c = prev[i-bpp]
		}
		b := prev[i]
		switch tag {
		case 0:
			out[i] = in[i]
		case 1:
			out[i] = in[i] + a
		case 2:
			out[i] = in[i] + b
		case 3:
			out[i] = in[i] + byte((int(a)+int(b))/2)
		case 4:
			out[i] = in[i] + paeth(a, b, c)
		default:
			return fmt.Errorf("invalid PNG filter type %d", tag)
		}
	}
	return nil
}
