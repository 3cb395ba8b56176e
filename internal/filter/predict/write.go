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
	"io"
)

// NewWriter returns a writer which applies prediction to the data and
// writes the result to w.  Closing the returned writer flushes any partial
// row and closes w.
func NewWriter(w io.WriteCloser, p *Params) (io.WriteCloser, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return w, nil
	}

	n := p.bytesPerRow()
	return &writer{
		w:    w,
		p:    p,
		prev: make([]byte, n),
		cur:  make([]byte, 0, n),
		out:  make([]byte, n+1),
	}, nil
}

type writer struct {
	w    io.WriteCloser
	p    *Params
	prev []byte
	cur  []byte
	out  []byte
}

func (w *writer) Write(data []byte) (int, error) {
	n := 0
	for len(data) > 0 {
		k := min(cap(w.cur)-len(w.cur), len(data))
		w.cur = append(w.cur, data[:k]...)
		data = data[k:]
		n += k
		if len(w.cur) == cap(w.cur) {
			if err := w.writeRow(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (w *writer) writeRow() error {
	row := w.cur
	var out []byte
	if w.p.Predictor == 2 {
		out = w.out[:len(row)]
		copy(out, row)
		w.applyTIFF(out)
	} else {
		tag := byte(w.p.Predictor - 10)
		if w.p.Predictor == 15 {
			tag = w.bestPNG(row)
		}
		out = w.out[:len(row)+1]
		out[0] = tag
		w.applyPNG(tag, row, out[1:])
	}

	_, err := w.w.Write(out)
	copy(w.prev, row)
	w.cur = w.cur[:0]
	return err
}

func (w *writer) applyTIFF(row []byte) {
	p := w.p
	nc := p.Colors
	mask := p.mask()
	for i := p.numComponents(row) - 1; i >= nc; i-- {
		v := p.component(row, i) - p.component(row, i-nc)
		p.setComponent(row, i, v&mask)
	}
}

func (w *writer) applyPNG(tag byte, row, out []byte) {
	bpp := w.p.bytesPerPixel()
	for i := range row {
		var a, c byte
		if i >= bpp {
			a = row[i-bpp]
			c = w.prev[i-bpp]
		}
		b := w.prev[i]
		switch tag {
		case 0:
			out[i] = row[i]
		case 1:
			out[i] = row[i] - a
		case 2:
			out[i] = row[i] - b
		case 3:
			out[i] = row[i] - byte((int(a)+int(b))/2)
		case 4:
			out[i] = row[i] - paeth(a, b, c)
		}
	}
}

// bestPNG chooses the PNG filter type with the smallest sum of absolute
// differences for the row.
func (w *writer) bestPNG(row []byte) byte {
	tmp := make([]byte, len(row))
	best := byte(0)
	bestScore := -1
	for tag := byte(0); tag <= 4; tag++ {
		w.applyPNG(tag, row, tmp)
		score := 0
		for _, b := range tmp {
			score += abs(int(int8(b)))
		}
		if bestScore < 0 || score < bestScore {
			best, bestScore = tag, score
		}
	}
	return best
}

// Close writes the final, possibly partial, row and closes the
// underlying writer.
func (w *writer) Close() error {
	if len(w.cur) > 0 {
		if err := w.writeRow(); err != nil {
			return err
		}
	}
	return w.w.Close()
}
