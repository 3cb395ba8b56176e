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

package ccittfax

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeParams(t *testing.T) {
	cases := []struct {
		p   Params
		err error
		ok  bool
	}{
		{Params{K: -1, Columns: 8}, nil, true},
		{Params{K: 0, Columns: 1728, Rows: 10}, nil, true},
		{Params{K: 2, Columns: 8}, ErrMixed, false},
		{Params{K: -1, Columns: 0}, nil, false},
	}
	for _, c := range cases {
		_, err := Decode(bytes.NewReader(nil), &c.p)
		if (err == nil) != c.ok {
			t.Errorf("%+v: unexpected error %v", c.p, err)
		}
		if c.err != nil && !errors.Is(err, c.err) {
			t.Errorf("%+v: expected %v, got %v", c.p, c.err, err)
		}
	}
}
