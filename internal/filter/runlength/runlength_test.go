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

package runlength

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type bufCloser struct {
	bytes.Buffer
}

func (*bufCloser) Close() error { return nil }

func TestDecode(t *testing.T) {
	enc := []byte{2, 'a', 'b', 'c', 253, 'x', 128, 0, 'z'}
	out, err := io.ReadAll(Decode(bytes.NewReader(enc)))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]byte("abcxxxx"), out); d != "" {
		t.Error(d)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("a"),
		[]byte("aaa"),
		[]byte("abcccccd"),
		bytes.Repeat([]byte{7}, 300),
		bytes.Repeat([]byte("ab"), 200),
	}
	for _, in := range cases {
		buf := &bufCloser{}
		w := Encode(buf)
		if _, err := w.Write(in); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		out, err := io.ReadAll(Decode(&buf.Buffer))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("round trip failed for %q", in)
		}
	}
}
