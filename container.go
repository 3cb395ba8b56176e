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
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Getter represents a source of indirect objects.  A [*Graph] is a Getter;
// other implementations can be used as the source of a [Copier].
//
// Get must return (nil, nil) for references which do not identify an
// object.
type Getter interface {
	Get(Reference) (Object, error)
}

// maxIndirection bounds the length of reference chains.
const maxIndirection = 16

// Resolve follows references until a direct object is found.  Objects
// which are not references are returned unchanged; references contained
// in dictionaries or arrays are not followed.
//
// As for [Graph.Get], a reference to a missing, free or outdated object
// resolves to null.  Reference loops give a [MalformedFileError].
func Resolve(r Getter, obj Object) (Object, error) {
	return resolve(r, obj, false)
}

// ResolveLive is like [Resolve], but when r is a [*Graph] every reference
// on the way must identify a live object.  References to free or
// non-existent objects give an error wrapping [ErrFreeObject], and
// references with an outdated generation number give a
// [StaleReferenceError].
func ResolveLive(r Getter, obj Object) (Object, error) {
	return resolve(r, obj, true)
}

func resolve(r Getter, obj Object, live bool) (Object, error) {
	g, isGraph := r.(*Graph)

	var chain []Reference
	for {
		ref, isRef := obj.(Reference)
		if !isRef {
			return obj, nil
		}
		if slices.Contains(chain, ref) || len(chain) >= maxIndirection {
			return nil, &MalformedFileError{
				Loc: []string{"object " + chain[0].String()},
				Err: fmt.Errorf("reference chain %s does not end", formatChain(append(chain, ref))),
			}
		}
		chain = append(chain, ref)

		if live && isGraph {
			err := g.checkLive(ref)
			if err != nil {
				return nil, err
			}
		}
		var err error
		obj, err = r.Get(ref)
		if err != nil {
			return nil, err
		}
	}
}

func formatChain(chain []Reference) string {
	parts := make([]string, len(chain))
	for i, ref := range chain {
		parts[i] = ref.String()
	}
	return strings.Join(parts, " -> ")
}

// getAs resolves obj and converts the result to T.  Null gives the zero
// value of T.
func getAs[T Object](r Getter, obj Object) (T, error) {
	var zero T

	ref, isRef := obj.(Reference)
	val, err := Resolve(r, obj)
	if err != nil || val == nil {
		return zero, err
	}
	x, ok := val.(T)
	if !ok {
		err := &MalformedFileError{
			Err: fmt.Errorf("expected %s, found %s", typeName(zero), typeName(val)),
		}
		if isRef {
			err.Loc = []string{"object " + ref.String()}
		}
		return zero, err
	}
	return x, nil
}

func typeName(obj Object) string {
	switch obj.(type) {
	case Array:
		return "array"
	case Bool:
		return "boolean"
	case Dict:
		return "dictionary"
	case Integer:
		return "integer"
	case Name:
		return "name"
	case Real:
		return "real number"
	case Reference:
		return "reference"
	case *Stream:
		return "stream"
	case String:
		return "string"
	}
	return "null"
}

// The following functions resolve obj using r and return the result as a
// value of the corresponding PDF type.  Null gives a zero value without
// error, any other type mismatch gives a [MalformedFileError].

func GetArray(r Getter, obj Object) (Array, error) { return getAs[Array](r, obj) }

func GetBool(r Getter, obj Object) (Bool, error) { return getAs[Bool](r, obj) }

func GetDict(r Getter, obj Object) (Dict, error) { return getAs[Dict](r, obj) }

func GetInteger(r Getter, obj Object) (Integer, error) { return getAs[Integer](r, obj) }

func GetName(r Getter, obj Object) (Name, error) { return getAs[Name](r, obj) }

func GetStream(r Getter, obj Object) (*Stream, error) { return getAs[*Stream](r, obj) }

func GetString(r Getter, obj Object) (String, error) { return getAs[String](r, obj) }
