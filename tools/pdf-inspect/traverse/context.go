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

// Package traverse implements navigation through the object graph of a
// PDF file, one step at a time.
package traverse

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"seehuhn.de/go/pdfgraph"
)

// Context is a position in the object graph.
type Context interface {
	// Show prints a textual description of the object.
	Show(w io.Writer) error

	// Next lists the steps which can be taken from this context.
	Next() []Step
}

// Step represents an action which can be performed on a context to either
// move to a child object or to get a new view of the same object.
type Step struct {
	// Match selects the step from the key chosen by the user.
	Match *regexp.Regexp

	// Desc is a human-readable description of the step.  Keywords are
	// enclosed in backticks, e.g. "`trailer`".
	Desc string

	// Next returns the context reached by this step.  The caller must
	// ensure that the key matches Match.
	Next func(key string) (Context, error)
}

// KeyError is returned when a step cannot be taken.
type KeyError struct {
	Key string
	Ctx string
}

func (err *KeyError) Error() string {
	return fmt.Sprintf("invalid key %q for %s", err.Key, err.Ctx)
}

// Walk follows the given path, starting at ctx.
func Walk(ctx Context, path ...string) (Context, error) {
	for _, key := range path {
		var next Context
		found := false
		for _, step := range ctx.Next() {
			if !step.Match.MatchString(key) {
				continue
			}
			var err error
			next, err = step.Next(key)
			if err != nil {
				return nil, err
			}
			found = true
			break
		}
		if !found {
			return nil, &KeyError{Key: key, Ctx: fmt.Sprintf("%T", ctx)}
		}
		ctx = next
	}
	return ctx, nil
}

// Root returns the starting context for the graph g.
func Root(g *pdfgraph.Graph) Context {
	return &graphCtx{g: g}
}

type graphCtx struct {
	g *pdfgraph.Graph
}

func (c *graphCtx) Next() []Step {
	return []Step{
		{
			Match: regexp.MustCompile(`^trailer$`),
			Desc:  "`trailer`",
			Next: func(string) (Context, error) {
				return &objectCtx{g: c.g, obj: c.g.Trailer()}, nil
			},
		},
		{
			Match: regexp.MustCompile(`^catalog$`),
			Desc:  "`catalog`",
			Next: func(string) (Context, error) {
				return c.resolve(c.g.Trailer()["Root"])
			},
		},
		{
			Match: regexp.MustCompile(`^info$`),
			Desc:  "`info`",
			Next: func(string) (Context, error) {
				return c.resolve(c.g.Trailer()["Info"])
			},
		},
		{
			Match: regexp.MustCompile(`^@objects$`),
			Desc:  "`@objects`",
			Next: func(string) (Context, error) {
				return &objectListCtx{g: c.g}, nil
			},
		},
		{
			Match: objNumberRegexp,
			Desc:  "object reference",
			Next: func(key string) (Context, error) {
				ref, err := parseReference(key)
				if err != nil {
					return nil, err
				}
				obj, err := pdfgraph.ResolveLive(c.g, ref)
				if err != nil {
					return nil, err
				}
				return &objectCtx{g: c.g, obj: obj}, nil
			},
		},
		{
			Match: regexp.MustCompile(`^.+$`),
			Desc:  "catalog key",
			Next: func(key string) (Context, error) {
				cat, err := c.resolve(c.g.Trailer()["Root"])
				if err != nil {
					return nil, err
				}
				return Walk(cat, key)
			},
		},
	}
}

func (c *graphCtx) resolve(obj pdfgraph.Object) (Context, error) {
	obj, err := pdfgraph.Resolve(c.g, obj)
	if err != nil {
		return nil, err
	}
	return &objectCtx{g: c.g, obj: obj}, nil
}

func (c *graphCtx) Show(w io.Writer) error {
	fmt.Fprintln(w, "version:", c.g.Version())
	fmt.Fprintln(w, "objects:", len(c.g.Objects()))
	if c.g.Reconstructed() {
		fmt.Fprintln(w, "cross-reference table: reconstructed")
	}
	if enc := c.g.Trailer()["Encrypt"]; enc != nil {
		fmt.Fprintf(w, "permissions: %07b\n", c.g.Permissions())
	}
	return nil
}

// objectListCtx lists all objects of the graph together with their
// state.
type objectListCtx struct {
	g *pdfgraph.Graph
}

func (c *objectListCtx) Next() []Step {
	return nil
}

func (c *objectListCtx) Show(w io.Writer) error {
	for _, ref := range c.g.Objects() {
		_, err := fmt.Fprintf(w, "%-12s %s\n", ref, c.g.State(ref))
		if err != nil {
			return err
		}
	}
	return nil
}

func parseReference(key string) (pdfgraph.Reference, error) {
	m := objNumberRegexp.FindStringSubmatch(key)
	if m == nil {
		return 0, &KeyError{Key: key, Ctx: "object reference"}
	}
	number, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, err
	}
	var generation uint16
	if m[2] != "" {
		tmp, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			return 0, err
		}
		generation = uint16(tmp)
	}
	return pdfgraph.NewReference(uint32(number), generation), nil
}

var (
	intRegexp       = regexp.MustCompile(`^-?\d+$`)
	objNumberRegexp = regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`)
)
