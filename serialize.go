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
)

// posWriter counts the bytes written to the underlying writer.  While an
// indirect object is written, it also carries the encryption state for
// this object; [String.PDF] and [Stream.PDF] consult these fields.
type posWriter struct {
	w   io.Writer
	pos int64

	enc          *Codec
	ref          Reference
	exemptStream bool
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

// writeIndirect writes obj as the indirect object ref.  If enc is not nil,
// strings and stream data are encrypted, except where the exemptions of
// enc say otherwise.
func (w *posWriter) writeIndirect(ref Reference, obj Object, enc *Codec) error {
	w.ref = ref
	w.enc = nil
	w.exemptStream = false
	if enc != nil && !enc.Exempt.exemptObject(ref, obj) {
		w.enc = enc
		if stm, ok := obj.(*Stream); ok {
			w.exemptStream = enc.Exempt.exemptStream(ref, stm)
		}
	}
	defer func() {
		w.enc = nil
		w.ref = 0
	}()

	_, err := fmt.Fprintf(w, "%d %d obj\n", ref.Number(), ref.Generation())
	if err != nil {
		return err
	}
	err = writeObject(w, obj)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\nendobj\n")
	return err
}

// serializeObject returns the bytes of the indirect object ref, as they
// appear in a PDF file.
func serializeObject(ref Reference, obj Object, enc *Codec) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := &posWriter{w: buf}
	err := w.writeIndirect(ref, obj, enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
