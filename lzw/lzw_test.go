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

package lzw

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLZWSimple(t *testing.T) {
	// This is example 1 from section 7.4.4.2 of PDF 32000-1:2008
	in := []byte{45, 45, 45, 45, 45, 65, 45, 45, 45, 66}
	expected := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}

	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Write(in)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(expected, buf.Bytes()); d != "" {
		t.Errorf("wrong encoding (-want +got):\n%s", d)
	}

	out, err := io.ReadAll(NewReader(bytes.NewReader(expected), true))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("wrong decoding (-want +got):\n%s", d)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var in []byte
	for len(in) < 100_000 {
		// a mix of repetitive and random data, to fill the table
		// several times
		word := make([]byte, 1+rng.Intn(12))
		for i := range word {
			word[i] = byte('a' + rng.Intn(20))
		}
		in = append(in, word...)
		if rng.Intn(10) == 0 {
			noise := make([]byte, 50)
			rng.Read(noise)
			in = append(in, noise...)
		}
	}

	for _, early := range []bool{false, true} {
		buf := &bytes.Buffer{}
		w, err := NewWriter(buf, early)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < len(in); i += 1000 {
			_, err = w.Write(in[i:min(i+1000, len(in))])
			if err != nil {
				t.Fatal(err)
			}
		}
		err = w.Close()
		if err != nil {
			t.Fatal(err)
		}

		r := NewReader(buf, early)
		out, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(early, err)
		}
		if err := r.Close(); err != nil {
			t.Fatal(early, err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("earlyChange=%t: round trip failed", early)
		}
	}
}

func TestEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(NewReader(buf, true))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("expected no output, got %q", out)
	}
}
