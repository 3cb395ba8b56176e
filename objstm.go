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
	"fmt"
	"strconv"
)

// maxObjStmObjects limits the /N value of object streams read from files.
const maxObjStmObjects = 100_000

// objStm holds the decoded contents of an object stream.
type objStm struct {
	number uint32
	items  []objStmItem
	first  int64
	data   []byte
}

type objStmItem struct {
	number uint32
	offset int64
}

// parseObjStm reads the index at the start of a decoded object stream.
func parseObjStm(container Reference, dict Dict, data []byte) (*objStm, error) {
	errorf := func(format string, args ...any) error {
		return &MalformedFileError{
			Loc: []string{"object stream " + container.String()},
			Err: fmt.Errorf(format, args...),
		}
	}

	if tp, _ := dict["Type"].(Name); tp != "ObjStm" {
		return nil, errorf("not an object stream")
	}
	N, ok := dict["N"].(Integer)
	if !ok || N < 0 || N > maxObjStmObjects {
		return nil, errorf("invalid /N")
	}
	first, ok := dict["First"].(Integer)
	if !ok || first < 0 || int64(first) > int64(len(data)) {
		return nil, errorf("invalid /First")
	}

	lex := newLexer(bytes.NewReader(data), int64(len(data)))
	items := make([]objStmItem, N)
	for i := range items {
		t1 := lex.next()
		t2 := lex.next()
		if t1.kind != tokInteger || t2.kind != tokInteger ||
			t1.num < 0 || t1.num > 1<<32-1 || t2.num < 0 || t2.num >= int64(len(data)) {
			return nil, errorf("invalid index entry %d", i)
		}
		num := uint32(t1.num)
		if num == container.Number() {
			return nil, errorf("object stream contains itself")
		}
		items[i] = objStmItem{number: num, offset: t2.num}
	}
	if lex.pos > int64(first) {
		return nil, errorf("index overlaps object data")
	}

	return &objStm{
		number: container.Number(),
		items:  items,
		first:  int64(first),
		data:   data,
	}, nil
}

// get reads object num, which is expected at the given index.  If the
// index is wrong, the object is located using its number.
func (o *objStm) get(num uint32, index int, warn func(error)) (Object, error) {
	if index < 0 || index >= len(o.items) || o.items[index].number != num {
		found := false
		for i, item := range o.items {
			if item.number == num {
				index = i
				found = true
				break
			}
		}
		if !found {
			return nil, &MalformedFileError{
				Loc: []string{"object stream " + strconv.Itoa(int(o.number))},
				Err: fmt.Errorf("object %d not found", num),
			}
		}
		if warn != nil {
			warn(&MalformedFileError{
				Loc: []string{"object stream " + strconv.Itoa(int(o.number))},
				Err: fmt.Errorf("object %d found at index %d", num, index),
			})
		}
	}

	p := newParser(bytes.NewReader(o.data), int64(len(o.data)))
	p.noStreams = true
	p.warn = warn
	p.seek(o.first + o.items[index].offset)
	return p.readObject()
}

// objStmEntry is an object to be stored in a new object stream.
type objStmEntry struct {
	number uint32
	obj    Object
}

// encodeObjStm builds a new object stream containing the given objects,
// in order.
func encodeObjStm(entries []objStmEntry) (*Stream, error) {
	header := &bytes.Buffer{}
	body := &bytes.Buffer{}
	for i, e := range entries {
		if i > 0 {
			header.WriteByte(' ')
		}
		fmt.Fprintf(header, "%d %d", e.number, body.Len())
		err := writeObject(body, e.obj)
		if err != nil {
			return nil, err
		}
		body.WriteByte('\n')
	}
	header.WriteByte('\n')

	first := header.Len()
	header.Write(body.Bytes())
	filters := []*FilterInfo{FilterFlate}
	data, err := EncodeBytes(header.Bytes(), filters)
	if err != nil {
		return nil, err
	}

	dict := Dict{
		"Type":  Name("ObjStm"),
		"N":     Integer(len(entries)),
		"First": Integer(first),
	}
	dict["Filter"], dict["DecodeParms"] = filtersAsDict(filters)
	return NewStream(dict, data), nil
}
