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

// Package ascii85 implements the ASCII85Decode filter.
//
// The base-85 arithmetic is done by [encoding/ascii85]; this package adds
// the PDF framing: the "~>" end-of-data marker and line breaks.
package ascii85

import (
	"bufio"
	"encoding/ascii85"
	"errors"
	"io"
)

// Decode returns a reader which decodes the ASCII85 data read from r.
// Reading stops at the "~>" marker; a missing marker is tolerated.
func Decode(r io.Reader) io.Reader {
	return ascii85.NewDecoder(&framed{r: bufio.NewReader(r)})
}

// framed strips the end-of-data marker from ASCII85 data.
type framed struct {
	r   *bufio.Reader
	err error
}

func (f *framed) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && f.err == nil {
		c, err := f.r.ReadByte()
		if err != nil {
			f.err = io.EOF
			break
		}
		if c == '~' {
			c2, err := f.r.ReadByte()
			if err == nil && c2 != '>' {
				f.err = errors.New("invalid end marker in ASCII85 data")
			} else {
				f.err = io.EOF
			}
			break
		}
		if c > 'u' && c != 'z' && !isSpace(c) {
			f.err = errors.New("invalid character in ASCII85 data")
			break
		}
		p[n] = c
		n++
	}
	if n > 0 {
		return n, nil
	}
	return 0, f.err
}

// Encode returns a writer which writes ASCII85 data to w.
// Closing the writer adds the end-of-data marker and closes w.
func Encode(w io.WriteCloser) io.WriteCloser {
	return &writer{enc: ascii85.NewEncoder(&lineWriter{w: w}), w: w}
}

type writer struct {
	enc io.WriteCloser
	w   io.WriteCloser
}

func (w *writer) Write(p []byte) (int, error) {
	return w.enc.Write(p)
}

func (w *writer) Close() error {
	err := w.enc.Close()
	if err != nil {
		return err
	}
	_, err = w.w.Write([]byte("~>"))
	if err != nil {
		return err
	}
	return w.w.Close()
}

// lineWriter breaks the output into lines of at most 79 characters.
type lineWriter struct {
	w   io.Writer
	col int
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	buf := make([]byte, 0, len(p)+len(p)/79+1)
	for _, c := range p {
		buf = append(buf, c)
		lw.col++
		if lw.col == 79 {
			buf = append(buf, '\n')
			lw.col = 0
		}
	}
	_, err := lw.w.Write(buf)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func isSpace(c byte) bool {
	switch c {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}
