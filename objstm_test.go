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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decodeTestObjStm(t *testing.T, container Reference, stm *Stream) *objStm {
	t.Helper()
	filters, err := getFilters(nil, stm.Dict)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := stm.Raw()
	if err != nil {
		t.Fatal(err)
	}
	data, err := DecodeBytes(raw, filters)
	if err != nil {
		t.Fatal(err)
	}
	o, err := parseObjStm(container, stm.Dict, data)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestObjStmRoundTrip(t *testing.T) {
	entries := []objStmEntry{
		{number: 1, obj: Dict{"Type": Name("Catalog"), "Pages": NewReference(2, 0)}},
		{number: 2, obj: Array{Integer(1), String("two"), Real(3.5)}},
		{number: 7, obj: nil},
		{number: 3, obj: Integer(42)},
	}
	stm, err := encodeObjStm(entries)
	if err != nil {
		t.Fatal(err)
	}
	if stm.Dict["N"] != Integer(4) {
		t.Errorf("wrong /N %v", stm.Dict["N"])
	}

	o := decodeTestObjStm(t, NewReference(10, 0), stm)
	for i, e := range entries {
		obj, err := o.get(e.number, i, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(e.obj, obj); d != "" {
			t.Errorf("object %d: %s", e.number, d)
		}
	}
}

func TestObjStmWrongIndex(t *testing.T) {
	stm, err := encodeObjStm([]objStmEntry{
		{number: 4, obj: Integer(4)},
		{number: 5, obj: Integer(5)},
	})
	if err != nil {
		t.Fatal(err)
	}
	o := decodeTestObjStm(t, NewReference(10, 0), stm)

	var warnings []error
	obj, err := o.get(5, 0, func(err error) { warnings = append(warnings, err) })
	if err != nil {
		t.Fatal(err)
	}
	if obj != Integer(5) {
		t.Errorf("wrong object %v", obj)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}

	_, err = o.get(6, 0, nil)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected malformed object error, got %v", err)
	}
}

func TestObjStmErrors(t *testing.T) {
	data := []byte("4 0 5 2\n4\n5\n")
	cases := []struct {
		name      string
		container Reference
		dict      Dict
	}{
		{"wrong type", NewReference(10, 0), Dict{"Type": Name("XRef"), "N": Integer(2), "First": Integer(8)}},
		{"missing N", NewReference(10, 0), Dict{"Type": Name("ObjStm"), "First": Integer(8)}},
		{"negative N", NewReference(10, 0), Dict{"Type": Name("ObjStm"), "N": Integer(-1), "First": Integer(8)}},
		{"huge N", NewReference(10, 0), Dict{"Type": Name("ObjStm"), "N": Integer(1 << 40), "First": Integer(8)}},
		{"First too large", NewReference(10, 0), Dict{"Type": Name("ObjStm"), "N": Integer(2), "First": Integer(800)}},
		{"First too small", NewReference(10, 0), Dict{"Type": Name("ObjStm"), "N": Integer(2), "First": Integer(3)}},
		{"too many objects", NewReference(10, 0), Dict{"Type": Name("ObjStm"), "N": Integer(3), "First": Integer(8)}},
		{"contains itself", NewReference(5, 0), Dict{"Type": Name("ObjStm"), "N": Integer(2), "First": Integer(8)}},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseObjStm(test.container, test.dict, data)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected malformed object error, got %v", err)
			}
		})
	}

	o, err := parseObjStm(NewReference(10, 0),
		Dict{"Type": Name("ObjStm"), "N": Integer(2), "First": Integer(8)}, data)
	if err != nil {
		t.Fatal(err)
	}
	obj, err := o.get(5, 1, nil)
	if err != nil || obj != Integer(5) {
		t.Errorf("got %v %v", obj, err)
	}
}

func TestObjStmNoStreams(t *testing.T) {
	data := []byte("4 0\n<</Length 3>>\nstream\nabc\nendstream\n")
	o, err := parseObjStm(NewReference(10, 0),
		Dict{"Type": Name("ObjStm"), "N": Integer(1), "First": Integer(4)}, data)
	if err != nil {
		t.Fatal(err)
	}
	obj, err := o.get(4, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, isStream := obj.(*Stream); isStream {
		t.Error("stream read from object stream")
	}
}
