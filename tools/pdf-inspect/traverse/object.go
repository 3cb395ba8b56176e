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

package traverse

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfgraph"
)

type objectCtx struct {
	g   *pdfgraph.Graph
	obj pdfgraph.Object
}

func (c *objectCtx) child(obj pdfgraph.Object) (Context, error) {
	obj, err := pdfgraph.Resolve(c.g, obj)
	if err != nil {
		return nil, err
	}
	return &objectCtx{g: c.g, obj: obj}, nil
}

func (c *objectCtx) dictStep(dict pdfgraph.Dict, desc string) Step {
	return Step{
		Match: regexp.MustCompile(`^/?[^@].*$`),
		Desc:  desc,
		Next: func(key string) (Context, error) {
			key = strings.TrimPrefix(key, "/")
			obj, ok := dict[pdfgraph.Name(key)]
			if !ok {
				return nil, &KeyError{Key: key, Ctx: desc}
			}
			return c.child(obj)
		},
	}
}

func (c *objectCtx) Next() []Step {
	switch x := c.obj.(type) {
	case pdfgraph.Dict:
		return []Step{c.dictStep(x, "dict keys")}

	case pdfgraph.Array:
		n := len(x)
		if n == 0 {
			return nil
		}
		return []Step{{
			Match: intRegexp,
			Desc:  fmt.Sprintf("array indices (%d to %d)", -n, n-1),
			Next: func(key string) (Context, error) {
				idx, err := strconv.Atoi(key)
				if err != nil {
					return nil, &KeyError{Key: key, Ctx: "array"}
				}
				// negative indices count from the end
				if idx < 0 {
					idx += n
				}
				if idx < 0 || idx >= n {
					return nil, &KeyError{Key: key, Ctx: "array"}
				}
				return c.child(x[idx])
			},
		}}

	case *pdfgraph.Stream:
		steps := []Step{
			{
				Match: regexp.MustCompile(`^@encoded$`),
				Desc:  "`@encoded`",
				Next: func(string) (Context, error) {
					data, err := x.Raw()
					if err != nil {
						return nil, err
					}
					return &dataCtx{data: data}, nil
				},
			},
			{
				Match: regexp.MustCompile(`^@raw$`),
				Desc:  "`@raw`",
				Next: func(string) (Context, error) {
					data, err := c.g.DecodeStream(x)
					if err != nil {
						return nil, err
					}
					return &dataCtx{data: data}, nil
				},
			},
			{
				Match: regexp.MustCompile(`^dict$`),
				Desc:  "`dict`",
				Next: func(string) (Context, error) {
					return &objectCtx{g: c.g, obj: x.Dict}, nil
				},
			},
		}
		if len(x.Dict) > 0 {
			steps = append(steps, c.dictStep(x.Dict, "stream dict keys"))
		}
		return steps
	}
	return nil
}

func (c *objectCtx) Show(w io.Writer) error {
	switch obj := c.obj.(type) {
	case *pdfgraph.Stream:
		c.showDict(w, obj.Dict)
		data, err := c.g.DecodeStream(obj)
		if err != nil {
			fmt.Fprintf(w, "cannot decode stream: %v\n", err)
			return nil
		}
		return (&dataCtx{data: data, limit: 1024}).Show(w)

	case pdfgraph.Dict:
		c.showDict(w, obj)

	case pdfgraph.Array:
		fmt.Fprintln(w, "[")
		for i, elem := range obj {
			extra := ""
			if i%10 == 0 || i == len(obj)-1 {
				extra = fmt.Sprintf("  %% %d", i)
			}
			fmt.Fprintln(w, singleLine(elem)+extra)
		}
		fmt.Fprintln(w, "]")

	default:
		fmt.Fprintln(w, pdfgraph.Format(obj))
	}
	return nil
}

func (c *objectCtx) showDict(w io.Writer, dict pdfgraph.Dict) {
	keys := make([]pdfgraph.Name, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	fmt.Fprintln(w, "<<")
	for _, key := range keys {
		fmt.Fprintln(w, pdfgraph.Format(key), singleLine(dict[key]))
	}
	fmt.Fprintln(w, ">>")
}

// singleLine describes an object in at most one line of text.
func singleLine(obj pdfgraph.Object) string {
	switch obj := obj.(type) {
	case *pdfgraph.Stream:
		parts := []string{"stream"}
		if tp, ok := obj.Dict["Type"].(pdfgraph.Name); ok {
			parts[0] = string(tp) + " stream"
		}
		if data, err := obj.Raw(); err == nil {
			parts = append(parts, fmt.Sprintf("%d bytes", len(data)))
		}
		switch f := obj.Dict["Filter"].(type) {
		case pdfgraph.Name:
			parts = append(parts, string(f))
		case pdfgraph.Array:
			for _, elem := range f {
				parts = append(parts, pdfgraph.Format(elem))
			}
		}
		return "<" + strings.Join(parts, ", ") + ">"
	case pdfgraph.Dict:
		if tp, ok := obj["Type"].(pdfgraph.Name); ok {
			return fmt.Sprintf("<%s dict, %d entries>", tp, len(obj))
		}
		return fmt.Sprintf("<dict, %d entries>", len(obj))
	case pdfgraph.Array:
		s := pdfgraph.Format(obj)
		if len(s) <= 60 {
			return s
		}
		return fmt.Sprintf("<array, %d elements>", len(obj))
	case pdfgraph.String:
		if !mostlyBinary(obj) {
			if text := obj.AsTextString(); utf8.ValidString(text) && len(text) <= 60 {
				return strconv.Quote(text)
			}
		}
		return pdfgraph.Format(obj)
	default:
		return pdfgraph.Format(obj)
	}
}

// dataCtx shows the payload of a stream.
type dataCtx struct {
	data  []byte
	limit int
}

func (c *dataCtx) Next() []Step {
	return nil
}

func (c *dataCtx) Show(w io.Writer) error {
	data := c.data
	if len(data) == 0 {
		_, err := fmt.Fprintln(w, "empty stream")
		return err
	}
	if mostlyBinary(data) {
		_, err := fmt.Fprintf(w, "... binary stream data (%d bytes) ...\n", len(data))
		return err
	}
	truncated := c.limit > 0 && len(data) > c.limit
	if truncated {
		data = data[:c.limit]
	}
	_, err := w.Write(data)
	if err != nil {
		return err
	}
	if truncated {
		_, err = fmt.Fprintf(w, "\n... %d more bytes ...\n", len(c.data)-c.limit)
	}
	return err
}

// mostlyBinary checks whether the start of data looks like binary data
// rather than text.
func mostlyBinary(data []byte) bool {
	data = data[:min(len(data), 512)]
	bad := 0
	for _, b := range data {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' || b >= 127 {
			bad++
		}
	}
	return 10*bad > len(data)
}
