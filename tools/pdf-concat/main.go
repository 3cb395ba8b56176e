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

// Pdf-concat concatenates PDF files.
//
// The page trees of the input files are copied into a new document, one
// after the other.  Document-level information like outlines or the
// document information dictionary is not copied.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"seehuhn.de/go/pdfgraph"
	"seehuhn.de/go/pdfgraph/tools/internal/cli"
)

const tool = "pdf-concat"

func main() {
	var common cli.Flags
	common.Register(flag.CommandLine)
	out := flag.String("o", "out.pdf", "output file name")
	force := flag.Bool("f", false, "overwrite output file if it exists")
	flag.Parse()

	if common.Version {
		fmt.Println(cli.Version(tool))
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "error: no input files given")
		flag.Usage()
		os.Exit(1)
	}
	err := cli.CheckOutput(*out, *force)
	if err != nil {
		cli.Fatal(tool, err)
	}

	stop, err := common.StartProfile()
	if err != nil {
		cli.Fatal(tool, err)
	}
	err = concatFiles(*out, flag.Args(), common.Logger())
	stop()
	if err != nil {
		cli.Fatal(tool, err)
	}
}

func concatFiles(out string, in []string, logger *slog.Logger) error {
	opt := &pdfgraph.Options{
		ReadPassword: pdfgraph.TerminalPassword(),
		Logger:       logger,
	}

	var srcs []*pdfgraph.Graph
	defer func() {
		for _, g := range srcs {
			g.Close()
		}
	}()
	for _, fname := range in {
		g, err := pdfgraph.Open(fname, opt)
		if err != nil {
			return fmt.Errorf("%s: %w", fname, err)
		}
		srcs = append(srcs, g)
	}

	dst, err := pdfgraph.NewGraph(pdfgraph.V1_0, nil)
	if err != nil {
		return err
	}
	err = concat(dst, srcs)
	if err != nil {
		return err
	}
	data, err := dst.Save(pdfgraph.FullRewrite)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

// concat copies the page trees of all graphs in srcs into dst, and sets
// up a new document catalog for dst.
func concat(dst *pdfgraph.Graph, srcs []*pdfgraph.Graph) error {
	root, err := dst.Alloc(nil)
	if err != nil {
		return err
	}

	var kids pdfgraph.Array
	var count pdfgraph.Integer
	version := dst.Version()
	for i, src := range srcs {
		version = max(version, src.Version())

		catalog, err := src.Catalog()
		if err != nil {
			return fmt.Errorf("input %d: %w", i+1, err)
		}
		pagesRef, ok := catalog["Pages"].(pdfgraph.Reference)
		if !ok {
			return fmt.Errorf("input %d: %w", i+1, errNoPages)
		}
		pages, err := pdfgraph.GetDict(src, pagesRef)
		if err != nil {
			return fmt.Errorf("input %d: %w", i+1, err)
		}
		n, err := pdfgraph.GetInteger(src, pages["Count"])
		if err != nil {
			return fmt.Errorf("input %d: %w", i+1, err)
		}

		c := pdfgraph.NewCopier(dst, src)
		newRef, err := c.CopyReference(pagesRef)
		if err != nil {
			return fmt.Errorf("input %d: %w", i+1, err)
		}
		node, err := pdfgraph.GetDict(dst, newRef)
		if err != nil {
			return err
		}
		node = node.Clone()
		node["Parent"] = root
		err = dst.Put(newRef, node)
		if err != nil {
			return err
		}

		kids = append(kids, newRef)
		count += n
	}

	err = dst.Put(root, pdfgraph.Dict{
		"Type":  pdfgraph.Name("Pages"),
		"Kids":  kids,
		"Count": count,
	})
	if err != nil {
		return err
	}
	catalog, err := dst.Alloc(pdfgraph.Dict{
		"Type":  pdfgraph.Name("Catalog"),
		"Pages": root,
	})
	if err != nil {
		return err
	}
	err = dst.SetRoot(catalog)
	if err != nil {
		return err
	}
	return dst.SetVersion(version)
}

var errNoPages = errors.New("missing page tree")
