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

// Package ccittfax implements decoding for the CCITTFaxDecode filter.
// The bit-level work is done by golang.org/x/image/ccitt.
package ccittfax

import (
	"errors"
	"io"

	"golang.org/x/image/ccitt"
)

// Params holds the /DecodeParms entries of a CCITTFaxDecode filter.
type Params struct {
	// K selects the encoding: K < 0 is pure two-dimensional (Group 4),
	// K = 0 is one-dimensional (Group 3), K > 0 is mixed.
	K int

	// Columns is the width of the image in pixels.
	Columns int

	// Rows is the height of the image.  Zero means that the height is
	// determined from the data.
	Rows int

	EncodedByteAlign bool
	BlackIs1         bool
}

// Decode returns a reader for the decoded image data.  The output uses
// one bit per pixel, with each row padded to a byte boundary.
func Decode(r io.Reader, p *Params) (io.Reader, error) {
	if p.Columns <= 0 {
		return nil, errors.New("ccittfax: invalid number of columns")
	}

	var sf ccitt.SubFormat
	switch {
	case p.K < 0:
		sf = ccitt.Group4
	case p.K == 0:
		sf = ccitt.Group3
	default:
		return nil, ErrMixed
	}

	height := p.Rows
	if height <= 0 {
		height = ccitt.AutoDetectHeight
	}
	opts := &ccitt.Options{
		Align:  p.EncodedByteAlign,
		Invert: p.BlackIs1,
	}
	return ccitt.NewReader(r, ccitt.MSB, sf, p.Columns, height, opts), nil
}

// ErrMixed is returned for mixed one- and two-dimensional encoding
// (K > 0), which is not supported.
var ErrMixed = errors.New("ccittfax: mixed 1D/2D encoding not supported")
