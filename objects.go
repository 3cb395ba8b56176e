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
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// Object represents an object in a PDF file.
//
// The set of object types is closed.  The concrete types are
// nil (the PDF null object), [Bool], [Integer], [Real], [String], [Name],
// [Array], [Dict], [*Stream] and [Reference].
type Object interface {
	// PDF writes the PDF file representation of the object to w.
	PDF(w io.Writer) error

	isObject()
}

// Bool represents a boolean value in a PDF file.
type Bool bool

// PDF implements the [Object] interface.
func (x Bool) PDF(w io.Writer) error {
	s := "false"
	if x {
		s = "true"
	}
	_, err := io.WriteString(w, s)
	return err
}

func (x Bool) isObject() {}

// Integer represents an integer constant in a PDF file.
type Integer int64

// PDF implements the [Object] interface.
func (x Integer) PDF(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(x), 10))
	return err
}

func (x Integer) isObject() {}

// Real represents a real number in a PDF file.
type Real float64

// PDF implements the [Object] interface.
func (x Real) PDF(w io.Writer) error {
	v := float64(x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s = s + "."
	}
	_, err := io.WriteString(w, s)
	return err
}

func (x Real) isObject() {}

// GetNumber returns the numeric value of an Integer or Real object.
// The second return value is false for all other object types.
func GetNumber(obj Object) (float64, bool) {
	switch x := obj.(type) {
	case Integer:
		return float64(x), true
	case Real:
		return float64(x), true
	}
	return 0, false
}

// String represents a string in a PDF file.  The character set encoding,
// if any, is determined by the context.
type String []byte

// IsBinary reports whether the string is better represented in
// hexadecimal form.  This is the case if more than a third of the
// bytes would need to be escaped in a literal string.
func (x String) IsBinary() bool {
	return 3*len(x.escapes()) > len(x)
}

// escapes returns the positions of all bytes which need escaping
// inside a literal string.
func (x String) escapes() []int {
	level := 0
	for _, c := range x {
		if c == '(' {
			level++
		} else if c == ')' {
			level--
			if level < 0 {
				break
			}
		}
	}
	balanced := level == 0

	var funny []int
	for i, c := range x {
		if c < 32 || c >= 127 || c == '\\' ||
			!balanced && (c == '(' || c == ')') {
			funny = append(funny, i)
		}
	}
	return funny
}

// PDF implements the [Object] interface.
func (x String) PDF(w io.Writer) error {
	l := x
	if pw, ok := w.(*posWriter); ok && pw.enc != nil {
		enc, err := pw.enc.EncryptString(pw.ref, l)
		if err != nil {
			return err
		}
		l = enc
	}

	funny := l.escapes()
	buf := &bytes.Buffer{}
	if 3*len(funny) <= len(l) {
		buf.WriteString("(")
		pos := 0
		for _, i := range funny {
			if pos < i {
				buf.Write(l[pos:i])
			}
			c := l[i]
			switch c {
			case '\r':
				buf.WriteString(`\r`)
			case '\n':
				buf.WriteString(`\n`)
			case '\t':
				buf.WriteString(`\t`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			case '(':
				buf.WriteString(`\(`)
			case ')':
				buf.WriteString(`\)`)
			case '\\':
				buf.WriteString(`\\`)
			default:
				fmt.Fprintf(buf, `\%03o`, c)
			}
			pos = i + 1
		}
		buf.Write(l[pos:])
		buf.WriteString(")")
	} else {
		fmt.Fprintf(buf, "<%x>", []byte(l))
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (x String) isObject() {}

// Name represents a name object in a PDF file.
type Name string

// PDF implements the [Object] interface.
func (x Name) PDF(w io.Writer) error {
	buf := &bytes.Buffer{}
	buf.WriteByte('/')
	for i := 0; i < len(x); i++ {
		c := x[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02x", c)
		} else {
			buf.WriteByte(c)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (x Name) isObject() {}

// Array represent an array of objects in a PDF file.
type Array []Object

// PDF implements the [Object] interface.
func (x Array) PDF(w io.Writer) error {
	_, err := io.WriteString(w, "[")
	if err != nil {
		return err
	}
	for i, val := range x {
		if i > 0 {
			_, err = io.WriteString(w, " ")
			if err != nil {
				return err
			}
		}
		err = writeObject(w, val)
		if err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "]")
	return err
}

func (x Array) isObject() {}

// Dict represent a dictionary object in a PDF file.
// Entries with value nil are equivalent to absent entries.
type Dict map[Name]Object

// PDF implements the [Object] interface.
// Keys are written in sorted order, so that the output is deterministic.
func (x Dict) PDF(w io.Writer) error {
	if x == nil {
		_, err := io.WriteString(w, "<<>>")
		return err
	}
	_, err := io.WriteString(w, "<<")
	if err != nil {
		return err
	}
	for _, key := range x.sortedKeys() {
		val := x[key]
		if val == nil {
			continue
		}
		_, err = io.WriteString(w, "\n")
		if err != nil {
			return err
		}
		err = key.PDF(w)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, " ")
		if err != nil {
			return err
		}
		err = val.PDF(w)
		if err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n>>")
	return err
}

func (x Dict) isObject() {}

func (x Dict) sortedKeys() []Name {
	keys := make([]Name, 0, len(x))
	for key := range x {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a shallow copy of the dictionary.
func (x Dict) Clone() Dict {
	if x == nil {
		return nil
	}
	res := make(Dict, len(x))
	for key, val := range x {
		res[key] = val
	}
	return res
}

// Stream represents a stream object in a PDF file.
//
// The payload is kept in encoded form, i.e. with the filters given in the
// stream dictionary still applied.  For streams read from a file, the payload
// is loaded on first use.
type Stream struct {
	Dict

	mu   sync.Mutex
	raw  []byte
	load func() ([]byte, error)
}

// NewStream returns a new stream with the given dictionary and encoded
// payload.
func NewStream(dict Dict, raw []byte) *Stream {
	if dict == nil {
		dict = Dict{}
	}
	return &Stream{Dict: dict, raw: raw}
}

// Raw returns the encoded payload of the stream.
// The returned slice must not be modified by the caller.
func (x *Stream) Raw() ([]byte, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.load != nil {
		data, err := x.load()
		if err != nil {
			return nil, err
		}
		x.raw = data
		x.load = nil
	}
	return x.raw, nil
}

// SetRaw replaces the encoded payload of the stream.
// The filters in the stream dictionary must match the new data.
func (x *Stream) SetRaw(data []byte) {
	x.mu.Lock()
	x.raw = data
	x.load = nil
	x.mu.Unlock()
}

// PDF implements the [Object] interface.
func (x *Stream) PDF(w io.Writer) error {
	data, err := x.Raw()
	if err != nil {
		return err
	}

	if pw, ok := w.(*posWriter); ok && pw.enc != nil && !pw.exemptStream {
		data, err = pw.enc.EncryptStream(pw.ref, data)
		if err != nil {
			return err
		}
	}

	dict := x.Dict.Clone()
	if dict == nil {
		dict = Dict{}
	}
	dict["Length"] = Integer(len(data))
	err = dict.PDF(w)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\nstream\n")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\nendstream")
	return err
}

func (x *Stream) isObject() {}

// Reference represents an indirect object in a PDF file.
// The object number and generation are packed into a single value.
type Reference uint64

// NewReference creates a new reference object.
func NewReference(number uint32, generation uint16) Reference {
	return Reference(uint64(number) | uint64(generation)<<32)
}

// Number returns the object number of the reference.
func (x Reference) Number() uint32 {
	return uint32(x)
}

// Generation returns the generation number of the reference.
func (x Reference) Generation() uint16 {
	return uint16(x >> 32)
}

func (x Reference) String() string {
	return fmt.Sprintf("%d %d R", x.Number(), x.Generation())
}

// PDF implements the [Object] interface.
func (x Reference) PDF(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d R", x.Number(), x.Generation())
	return err
}

func (x Reference) isObject() {}

func writeObject(w io.Writer, obj Object) error {
	if obj == nil {
		_, err := io.WriteString(w, "null")
		return err
	}
	return obj.PDF(w)
}

// Format formats a PDF object as a string, in the same way as it
// would be written to a PDF file.
func Format(obj Object) string {
	buf := &bytes.Buffer{}
	err := writeObject(buf, obj)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return buf.String()
}
