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
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestRoundTrip(t *testing.T) {
	cases := []Params{
		{Predictor: 2, Colors: 1, BitsPerComponent: 8, Columns: 7},
		{Predictor: 2, Colors: 3, BitsPerComponent: 8, Columns: 5},
		{Predictor: 2, Colors: 1, BitsPerComponent: 1, Columns: 13},
		{Predictor: 2, Colors: 2, BitsPerComponent: 4, Columns: 3},
		{Predictor: 2, Colors: 1, BitsPerComponent: 16, Columns: 4},
		{Predictor: 10, Colors: 1, BitsPerComponent: 8, Columns: 9},
		{Predictor: 11, Colors: 3, BitsPerComponent: 8, Columns: 4},
		{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 5},
		{Predictor: 13, Colors: 4, BitsPerComponent: 8, Columns: 3},
		{Predictor: 14, Colors: 1, BitsPerComponent: 16, Columns: 6},
		{Predictor: 15, Colors: 1, BitsPerComponent: 2, Columns: 11},
	}

	rng := rand.New(rand.NewSource(1))
	for _, p := range cases {
		for _, rows := range []int{1, 4} {
			in := make([]byte, rows*p.bytesPerRow())
			rng.Read(in)

			buf := nopCloser{&bytes.Buffer{}}
			w, err := NewWriter(buf, &p)
			if err != nil {
				t.Fatal(err)
			}
			// write in odd-sized pieces to cross row boundaries
			for i := 0; i < len(in); i += 3 {
				_, err = w.Write(in[i:min(i+3, len(in))])
				if err != nil {
					t.Fatal(err)
				}
			}
			err = w.Close()
			if err != nil {
				t.Fatal(err)
			}

			r, err := NewReader(bytes.NewReader(buf.Bytes()), &p)
			if err != nil {
				t.Fatal(err)
			}
			out, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(in, out); d != "" {
				t.Errorf("%+v, %d rows: round trip failed (-want +got):\n%s", p, rows, d)
			}
		}
	}
}

func TestPNGUp(t *testing.T) {
	p := &Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 3}
	enc := []byte{
		2, 1, 2, 3,
		2, 1, 1, 1,
		0, 9, 9, 9,
	}
	r, err := NewReader(bytes.NewReader(enc), p)
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 2, 3, 4, 9, 9, 9}
	if d := cmp.Diff(want, out); d != "" {
		t.Error(d)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		p  Params
		ok bool
	}{
		{Params{Predictor: 1}, true},
		{Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 1}, true},
		{Params{Predictor: 3, Colors: 1, BitsPerComponent: 8, Columns: 1}, false},
		{Params{Predictor: 2, Colors: 0, BitsPerComponent: 8, Columns: 1}, false},
		{Params{Predictor: 2, Colors: 1, BitsPerComponent: 3, Columns: 1}, false},
		{Params{Predictor: 11, Colors: 1, BitsPerComponent: 8, Columns: 0}, false},
	}
	for _, c := range cases {
		err := c.p.Validate()
		if (err == nil) != c.ok {
			t.Errorf("%+v: unexpected error %v", c.p, err)
		}
	}
}
