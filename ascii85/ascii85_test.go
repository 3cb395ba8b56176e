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

package ascii85

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
	cases := []struct {
		in   string
		want string
	}{
		{"~>", ""},
		{"87cURD_*#4DfTZ)~>", "Hello, World"},
		{"z~>", "\x00\x00\x00\x00"},
		{"87cU\nRD_*#4 DfTZ)~>", "Hello, World"},
		{"87cURD_*#4DfTZ)", "Hello, World"},
	}
	for _, c := range cases {
		out, err := io.ReadAll(Decode(bytes.NewReader([]byte(c.in))))
		if err != nil {
			t.Errorf("%q: %v", c.in, err)
			continue
		}
		if d := cmp.Diff(c.want, string(out)); d != "" {
			t.Errorf("%q: (-want +got):\n%s", c.in, d)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 5, 100, 1000} {
		in := make([]byte, n)
		for i := range in {
			in[i] = byte(i*i + 3)
		}
		buf := &bufCloser{}
		w := Encode(buf)
		if _, err := w.Write(in); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if !bytes.HasSuffix(buf.Bytes(), []byte("~>")) {
			t.Errorf("%d: missing end marker", n)
		}

		out, err := io.ReadAll(Decode(&buf.Buffer))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("%d: round trip failed", n)
		}
	}
}
