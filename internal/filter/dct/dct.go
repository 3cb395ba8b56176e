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

// Package dct decodes the image data of DCTDecode streams.
package dct

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
)

// Decode decodes JPEG data from r and returns the raw pixel bytes.
//
// The output contains interleaved channel bytes, row by row, with no
// padding: one byte per pixel for grayscale images, three (RGB) for
// color images and four for CMYK images.
func Decode(r io.Reader) (io.Reader, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var buf []byte
	switch img := img.(type) {
	case *image.Gray:
		buf = make([]byte, 0, w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := img.PixOffset(bounds.Min.X, y)
			buf = append(buf, img.Pix[off:off+w]...)
		}
	case *image.CMYK:
		buf = make([]byte, 0, 4*w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := img.PixOffset(bounds.Min.X, y)
			buf = append(buf, img.Pix[off:off+4*w]...)
		}
	case *image.YCbCr:
		buf = make([]byte, 0, 3*w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				yi := img.YOffset(x, y)
				ci := img.COffset(x, y)
				r, g, b := color.YCbCrToRGB(img.Y[yi], img.Cb[ci], img.Cr[ci])
				buf = append(buf, r, g, b)
			}
		}
	default:
		buf = make([]byte, 0, 3*w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				buf = append(buf, byte(r>>8), byte(g>>8), byte(b>>8))
			}
		}
	}
	return bytes.NewReader(buf), nil
}
