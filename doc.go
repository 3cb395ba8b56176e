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


// Package pdfgraph provides an editable object graph for PDF files.
//
// A PDF file is a collection of numbered objects, linked to each other by
// indirect references.  This package reads the cross-reference information
// of a file and then loads objects lazily, when they are first accessed
// through a [Graph].  Objects can be changed, added and removed, and the
// graph can then be saved either as a new file or as an incremental update
// appended to the original file.
//
// An existing file is opened using [Open] or [Read]:
//
//	g, err := pdfgraph.Open("in.pdf", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//	catalog, err := g.Catalog()
//	if err != nil {
//		log.Fatal(err)
//	}
//	... use catalog to locate objects in the file ...
//
// Changes are recorded using [Graph.Put], [Graph.Alloc], [Graph.Free] and
// [Graph.MarkModified], and are written by [Graph.Save]:
//
//	data, err := g.Save(pdfgraph.IncrementalAppend)
//
// The following types implement the native PDF object types.
// All of these implement the [Object] interface:
//
//	Array
//	Bool
//	Dict
//	Integer
//	Name
//	Real
//	Reference
//	Stream
//	String
//
// Encrypted files are supported through the standard security handler,
// see [Options] and [EncryptionOptions].  Objects can be transferred
// between documents using a [Copier].
package pdfgraph
