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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testFilterData = []byte("Hello, world!  aaaaaaaaaaaaaaaaaaaaaaaa\x00\x01\x02\xff the quick brown fox")

func TestFilterRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		filters []*FilterInfo
	}{
		{"none", nil},
		{"flate", []*FilterInfo{FilterFlate}},
		{"flate-png", []*FilterInfo{{Name: "FlateDecode", Parms: Dict{
			"Predictor": Integer(12),
			"Columns":   Integer(4),
		}}}},
		{"flate-tiff", []*FilterInfo{{Name: "FlateDecode", Parms: Dict{
			"Predictor": Integer(2),
			"Colors":    Integer(2),
			"Columns":   Integer(3),
		}}}},
		{"lzw", []*FilterInfo{{Name: "LZWDecode"}}},
		{"lzw-early0", []*FilterInfo{{Name: "LZWDecode", Parms: Dict{"EarlyChange": Integer(0)}}}},
		{"ascii85", []*FilterInfo{{Name: "ASCII85Decode"}}},
		{"ascii85-abbrev", []*FilterInfo{{Name: "A85"}}},
		{"asciihex", []*FilterInfo{{Name: "AHx"}}},
		{"runlength", []*FilterInfo{{Name: "RunLengthDecode"}}},
		{"crypt-identity", []*FilterInfo{{Name: "Crypt"}}},
		{"chain", []*FilterInfo{{Name: "ASCII85Decode"}, FilterFlate}},
		{"chain3", []*FilterInfo{{Name: "AHx"}, {Name: "RL"}, {Name: "Fl"}}},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			enc, err := EncodeBytes(testFilterData, test.filters)
			if err != nil {
				t.Fatal(err)
			}
			dec, err := DecodeBytes(enc, test.filters)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(dec, testFilterData) {
				t.Errorf("wrong data: %q", dec)
			}
		})
	}
}

func TestUnsupportedFilter(t *testing.T) {
	filters := []*FilterInfo{{Name: "NoSuchDecode"}}
	_, err := DecodeBytes([]byte("abc"), filters)
	if !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("expected unsupported filter error, got %v", err)
	}
	_, err = EncodeBytes([]byte("abc"), filters)
	if !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("expected unsupported filter error, got %v", err)
	}

	// CCITTFax can only be decoded
	_, err = EncodeBytes([]byte("abc"), []*FilterInfo{{Name: "CCITTFaxDecode"}})
	if !errors.Is(err, ErrUnsupportedFilter) {
		t.Errorf("expected unsupported filter error, got %v", err)
	}
}

func TestTruncatedFlate(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1000)
	enc, err := EncodeBytes(data, []*FilterInfo{FilterFlate})
	if err != nil {
		t.Fatal(err)
	}
	dec, truncated, err := decodeBytes(enc[:len(enc)-4], []*FilterInfo{FilterFlate})
	if err != nil {
		t.Fatal(err)
	}
	if !truncated {
		t.Error("truncation not reported")
	}
	if len(dec) == 0 || !bytes.HasPrefix(data, dec) {
		t.Errorf("got %d bytes of wrong data", len(dec))
	}

	_, truncated, err = decodeBytes(enc, []*FilterInfo{FilterFlate})
	if err != nil {
		t.Fatal(err)
	}
	if truncated {
		t.Error("complete data reported as truncated")
	}
}

func TestDecodeStreamTruncated(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1000)
	enc, err := EncodeBytes(data, []*FilterInfo{FilterFlate})
	if err != nil {
		t.Fatal(err)
	}

	warnings := &warningLog{}
	g, err := NewGraph(V1_7, &Options{OnWarning: warnings.add})
	if err != nil {
		t.Fatal(err)
	}
	stm := NewStream(Dict{"Filter": Name("FlateDecode")}, enc[:len(enc)-4])
	dec, err := g.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, dec) {
		t.Error("wrong data")
	}

	ww := warnings.get()
	if len(ww) != 1 || !errors.Is(ww[0], ErrTruncatedStream) || !errors.Is(ww[0], ErrMalformed) {
		t.Errorf("wrong warnings %v", ww)
	}
}

func TestGetFilters(t *testing.T) {
	parms := Dict{"Predictor": Integer(12)}
	cases := []struct {
		name string
		dict Dict
		out  []*FilterInfo
	}{
		{"none", Dict{}, nil},
		{"name", Dict{"Filter": Name("FlateDecode"), "DecodeParms": parms},
			[]*FilterInfo{{Name: "FlateDecode", Parms: parms}}},
		{"name with array parms", Dict{"Filter": Name("FlateDecode"), "DecodeParms": Array{parms}},
			[]*FilterInfo{{Name: "FlateDecode", Parms: parms}}},
		{"array", Dict{
			"Filter":      Array{Name("ASCII85Decode"), Name("FlateDecode")},
			"DecodeParms": Array{nil, parms},
		}, []*FilterInfo{{Name: "ASCII85Decode"}, {Name: "FlateDecode", Parms: parms}}},
		{"short parms", Dict{
			"Filter":      Array{Name("ASCII85Decode"), Name("FlateDecode")},
			"DecodeParms": Array{nil},
		}, []*FilterInfo{{Name: "ASCII85Decode"}, {Name: "FlateDecode"}}},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			out, err := getFilters(nil, test.dict)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(test.out, out); d != "" {
				t.Error(d)
			}
		})
	}

	_, err := getFilters(nil, Dict{"Filter": Integer(1)})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected malformed object error, got %v", err)
	}
}

func TestFiltersAsDict(t *testing.T) {
	parms := Dict{"Predictor": Integer(12)}
	filter, p := filtersAsDict([]*FilterInfo{{Name: "FlateDecode", Parms: parms}})
	if d := cmp.Diff(Name("FlateDecode"), filter); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff(parms, p); d != "" {
		t.Error(d)
	}

	filter, p = filtersAsDict([]*FilterInfo{{Name: "ASCII85Decode"}, FilterFlate})
	if d := cmp.Diff(Array{Name("ASCII85Decode"), Name("FlateDecode")}, filter); d != "" {
		t.Error(d)
	}
	if p != nil {
		t.Errorf("unexpected parameters %v", p)
	}

	// the result must be understood by getFilters
	dict := Dict{"Filter": filter}
	out, err := getFilters(nil, dict)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[1].Name != "FlateDecode" {
		t.Errorf("wrong filters %v", out)
	}
}
