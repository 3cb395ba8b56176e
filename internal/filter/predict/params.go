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

// Package predict implements the TIFF and PNG predictors which can be used
// together with the FlateDecode and LZWDecode filters.
package predict

import (
	"errors"
	"fmt"
)

const maxColumns = 1 << 20

// Params holds the /DecodeParms entries which control prediction.
type Params struct {
	// Colors is the number of color components per pixel.
	Colors int

	// BitsPerComponent is the number of bits per color component.
	// Valid values are 1, 2, 4, 8 and 16.
	BitsPerComponent int

	// Columns is the number of pixels per row.
	Columns int

	// Predictor selects the prediction algorithm:
	// 1 means no prediction, 2 is TIFF predictor 2,
	// and 10 to 15 are the PNG predictors (None, Sub, Up, Average,
	// Paeth, Optimum).
	Predictor int
}

// Validate checks that the parameters are consistent.
func (p *Params) Validate() error {
	switch {
	case p.Predictor == 1:
		return nil
	case p.Predictor == 2:
		if p.Colors > 60 {
			return errors.New("too many colors for TIFF predictor")
		}
	case p.Predictor >= 10 && p.Predictor <= 15:
		if p.Colors > 256 {
			return errors.New("too many colors for PNG predictor")
		}
	default:
		return fmt.Errorf("unsupported predictor %d", p.Predictor)
	}

	if p.Colors < 1 {
		return errors.New("Colors must be at least 1")
	}
	switch p.BitsPerComponent {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("invalid BitsPerComponent %d", p.BitsPerComponent)
	}
	if p.Columns < 1 || p.Columns > maxColumns {
		return fmt.Errorf("invalid number of columns %d", p.Columns)
	}
	return nil
}

func (p *Params) bitsPerPixel() int {
	return p.Colors * p.BitsPerComponent
}

func (p *Params) bytesPerRow() int {
	return (p.bitsPerPixel()*p.Columns + 7) / 8
}

// bytesPerPixel is the distance used by the PNG predictors.
func (p *Params) bytesPerPixel() int {
	return max((p.bitsPerPixel()+7)/8, 1)
}

// numComponents returns the number of complete components stored in row.
func (p *Params) numComponents(row []byte) int {
	return min(p.Columns*p.Colors, len(row)*8/p.BitsPerComponent)
}

func (p *Params) mask() uint16 {
	if p.BitsPerComponent == 16 {
		return 0xFFFF
	}
	return uint16(1)<<p.BitsPerComponent - 1
}

// component returns the i-th component value of a row.
func (p *Params) component(row []byte, i int) uint16 {
	switch p.BitsPerComponent {
	case 16:
		return uint16(row[2*i])<<8 | uint16(row[2*i+1])
	case 8:
		return uint16(row[i])
	}
	bpc := p.BitsPerComponent
	bit := i * bpc
	shift := 8 - bpc - bit%8
	mask := byte(1<<bpc - 1)
	return uint16(row[bit/8] >> shift & mask)
}

func (p *Params) setComponent(row []byte, i int, v uint16) {
	switch p.BitsPerComponent {
	case 16:
		row[2*i] = byte(v >> 8)
		row[2*i+1] = byte(v)
		return
	case 8:
		row[i] = byte(v)
		return
	}
	bpc := p.BitsPerComponent
	bit := i * bpc
	shift := 8 - bpc - bit%8
	mask := byte(1<<bpc - 1)
	row[bit/8] = row[bit/8]&^(mask<<shift) | (byte(v)&mask)<<shift
}

func paeth(a, b, c byte) byte {
	pa := abs(int(b) - int(c))
	pb := abs(int(a) - int(c))
	pc := abs(int(a) + int(b) - 2*int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
