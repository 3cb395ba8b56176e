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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func lexString(s string) *lexer {
	return newLexer(bytes.NewReader([]byte(s)), int64(len(s)))
}

func TestLexerNumbers(t *testing.T) {
	cases := []struct {
		in   string
		kind tokenKind
		num  int64
		real float64
	}{
		{"0", tokInteger, 0, 0},
		{"42", tokInteger, 42, 0},
		{"+17", tokInteger, 17, 0},
		{"-98", tokInteger, -98, 0},
		{"00012", tokInteger, 12, 0},
		{"--5", tokInteger, -5, 0},
		{"5-", tokInteger, 5, 0},
		{"-", tokInteger, 0, 0},
		{"1.5", tokReal, 0, 1.5},
		{"-.002", tokReal, 0, -0.002},
		{"4.", tokReal, 0, 4},
		{".", tokReal, 0, 0},
		{"1.2.3", tokReal, 0, 1.2},
		{"9223372036854775807", tokInteger, math.MaxInt64, 0},
		{"99999999999999999999", tokReal, 0, 1e20},
	}
	for _, test := range cases {
		t.Run(test.in, func(t *testing.T) {
			tok := lexString(test.in).next()
			if tok.kind != test.kind {
				t.Fatalf("wrong kind %d, expected %d", tok.kind, test.kind)
			}
			switch tok.kind {
			case tokInteger:
				if tok.num != test.num {
					t.Errorf("wrong value %d, expected %d", tok.num, test.num)
				}
			case tokReal:
				if math.Abs(tok.real-test.real) > 1e-9*math.Max(1, math.Abs(test.real)) {
					t.Errorf("wrong value %g, expected %g", tok.real, test.real)
				}
			}
		})
	}
}

func TestLexerTokens(t *testing.T) {
	in := "% comment\n<</Type/Catalog>> [1 (a\\)b) <4142>] \x01) true endobj"
	lex := lexString(in)

	type tok struct {
		Kind tokenKind
		Val  string
	}
	var got []tok
	for {
		t := lex.next()
		if t.kind == tokEOF {
			break
		}
		got = append(got, tok{t.kind, string(t.val)})
	}
	want := []tok{
		{tokDictStart, ""},
		{tokName, "Type"},
		{tokName, "Catalog"},
		{tokDictEnd, ""},
		{tokArrayStart, ""},
		{tokInteger, ""},
		{tokString, "a)b"},
		{tokHexString, "AB"},
		{tokArrayEnd, ""},
		{tokGarbage, "\x01"},
		{tokGarbage, ")"},
		{tokKeyword, "true"},
		{tokKeyword, "endobj"},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestLexerPosition(t *testing.T) {
	lex := lexString("  /A   123  ")
	tok := lex.next()
	if tok.pos != 2 {
		t.Errorf("wrong position %d", tok.pos)
	}
	tok = lex.next()
	if tok.pos != 7 || tok.num != 123 {
		t.Errorf("wrong token %v", tok)
	}
	if lex.pos != 10 {
		t.Errorf("wrong lexer position %d", lex.pos)
	}
	tok = lex.next()
	if tok.kind != tokEOF {
		t.Errorf("expected EOF, got %v", tok)
	}
}

func TestLexerStrings(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{`()`, ""},
		{"(test string)", "test string"},
		{`(he(ll)o)`, "he(ll)o"},
		{`(he\)ll\(o)`, "he)ll(o"},
		{"(hello\n)", "hello\n"},
		{"(hello\r)", "hello\n"},
		{"(hello\r\n)", "hello\n"},
		{"(hell\\\no)", "hello"},
		{"(hell\\\r\no)", "hello"},
		{`(h\145llo)`, "hello"},
		{`(\0612)`, "12"},
		{`(\q)`, "q"},
		{"(unterminated", "unterminated"},
		{"<>", ""},
		{"<68656c6c6f>", "hello"},
		{"<68 65 6C 6C 6F>", "hello"},
		{"<68656C7>", "help"},
		{"<6x8656C70>", "help"},
	}
	for _, test := range cases {
		tok := lexString(test.in).next()
		if tok.kind != tokString && tok.kind != tokHexString {
			t.Errorf("%q: wrong token kind %d", test.in, tok.kind)
			continue
		}
		if string(tok.val) != test.out {
			t.Errorf("%q: got %q, expected %q", test.in, tok.val, test.out)
		}
	}
}

func TestLexerNames(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"/Name", "Name"},
		{"/", ""},
		{"/A#20B", "A B"},
		{"/A#2", "A#2"},
		{"/A#zzB", "A#zzB"},
		{"/1.5", "1.5"},
	}
	for _, test := range cases {
		tok := lexString(test.in).next()
		if tok.kind != tokName {
			t.Errorf("%q: wrong token kind %d", test.in, tok.kind)
			continue
		}
		if d := cmp.Diff(test.out, string(tok.val), cmpopts.EquateEmpty()); d != "" {
			t.Errorf("%q: %s", test.in, d)
		}
	}
}

func TestFindKeyword(t *testing.T) {
	in := "xendstream endstreamx\nendstream\n"
	lex := lexString(in)
	pos, ok := lex.findKeyword(0, "endstream")
	if !ok || pos != 22 {
		t.Errorf("found at %d (%t), expected 22", pos, ok)
	}
	_, ok = lex.findKeyword(23, "endstream")
	if ok {
		t.Error("unexpected match")
	}
}

func FuzzLexer(f *testing.F) {
	f.Add([]byte("1 0 obj\n<</Length 5>>\nstream\nhello\nendstream\nendobj"))
	f.Add([]byte("(a\\)b) <41> /N#41 [--5 1.2.3] %c\n"))
	f.Fuzz(func(t *testing.T, data []byte) {
		lex := newLexer(bytes.NewReader(data), int64(len(data)))
		last := int64(-1)
		for {
			tok := lex.next()
			if tok.kind == tokEOF {
				break
			}
			if lex.pos <= last {
				t.Fatalf("no progress at %d", lex.pos)
			}
			last = lex.pos
		}
	})
}
