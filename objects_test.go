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

package pdfgraph

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		in  Object
		out string
	}{
		{nil, "null"},
		{Bool(true), "true"},
		{Integer(-7), "-7"},
		{Real(1.5), "1.5"},
		{Real(2), "2."},
		{String("a"), "(a)"},
		{String("a (test version)"), "(a (test version))"},
		{String("a (test version"), "(a \\(test version)"},
		{String(""), "()"},
		{String("\000"), "<00>"},
		{String("x\ny"), "(x\\ny)"},
		{Name("Type"), "/Type"},
		{Name("A B#"), "/A#20B#23"},
		{Array{Integer(1), nil, Integer(3)}, "[1 null 3]"},
		{Dict{"B": Integer(2), "A": Integer(1), "C": nil}, "<<\n/A 1\n/B 2\n>>"},
		{NewReference(12, 3), "12 3 R"},
	}
	for _, test := range cases {
		out := Format(test.in)
		if out != test.out {
			t.Errorf("string wrongly formatted, expected %q but got %q",
				test.out, out)
		}
	}
}

func TestStreamFormat(t *testing.T) {
	stm := NewStream(Dict{"Length": Integer(99)}, []byte("hello"))
	out := Format(stm)
	expected := "<<\n/Length 5\n>>\nstream\nhello\nendstream"
	if out != expected {
		t.Errorf("wrong stream: %q", out)
	}
	if stm.Dict["Length"] != Integer(99) {
		t.Error("stream dictionary was modified")
	}
}

func TestReference(t *testing.T) {
	ref := NewReference(0xFFFFFFFF, 0xFFFF)
	if ref.Number() != 0xFFFFFFFF || ref.Generation() != 0xFFFF {
		t.Errorf("wrong reference %s", ref)
	}
	ref = NewReference(5, 1)
	if ref.Number() != 5 || ref.Generation() != 1 {
		t.Errorf("wrong reference %s", ref)
	}
}

func TestIsBinary(t *testing.T) {
	cases := []struct {
		in     String
		binary bool
	}{
		{String(""), false},
		{String("hello"), false},
		{String("a\nb"), false},
		{String{0, 1, 2}, true},
		{String{0xFE, 0xFF, 0, 'A'}, true},
	}
	for _, test := range cases {
		if test.in.IsBinary() != test.binary {
			t.Errorf("%q: wrong result", test.in)
		}
	}
}

func FuzzString(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("ABC"))
	f.Add([]byte("(x))"))
	f.Add([]byte{0, 1, 2})
	f.Add([]byte{0xFF, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		s1 := String(data)
		enc := Format(s1)
		obj, err := parseString(enc).readObject()
		if err != nil {
			t.Fatal(err)
		}
		s2, ok := obj.(String)
		if !ok {
			t.Fatalf("wrong type %T", obj)
		}
		if !bytes.Equal(s1, s2) {
			t.Errorf("wrong string: %q != %q", s1, s2)
		}
	})
}

func TestDictClone(t *testing.T) {
	d1 := Dict{"A": Integer(1), "B": Array{Integer(2)}}
	d2 := d1.Clone()
	d2["A"] = Integer(3)
	if d1["A"] != Integer(1) {
		t.Error("clone shares storage")
	}
	if d := cmp.Diff(d1["B"], d2["B"]); d != "" {
		t.Error(d)
	}
	if Dict(nil).Clone() != nil {
		t.Error("clone of nil is not nil")
	}
}

func TestGetNumber(t *testing.T) {
	cases := []struct {
		in  Object
		out float64
		ok  bool
	}{
		{Integer(3), 3, true},
		{Real(-0.5), -0.5, true},
		{Name("x"), 0, false},
		{nil, 0, false},
	}
	for _, test := range cases {
		x, ok := GetNumber(test.in)
		if x != test.out || ok != test.ok {
			t.Errorf("%v: got %g %t", test.in, x, ok)
		}
	}
}
