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

// Pdf-inspect shows the objects in a PDF file.
//
// Usage:
//
//	pdf-inspect [options] file.pdf [key ...]
//
// The keys select a path through the object graph, starting at the file
// level.  For example, "catalog Pages Kids 0" shows the first child of
// the page tree root, and "12" shows object 12.  If no keys are given,
// general information about the file is shown.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"seehuhn.de/go/pdfgraph"
	"seehuhn.de/go/pdfgraph/tools/internal/cli"
	"seehuhn.de/go/pdfgraph/tools/pdf-inspect/traverse"
)

const tool = "pdf-inspect"

func main() {
	var common cli.Flags
	common.Register(flag.CommandLine)
	passwd := flag.String("p", "", "the password to open the file")
	showSteps := flag.Bool("steps", false, "list the keys which can follow the given path")
	flag.Parse()

	if common.Version {
		fmt.Println(cli.Version(tool))
		return
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	stop, err := common.StartProfile()
	if err != nil {
		cli.Fatal(tool, err)
	}
	err = inspect(flag.Arg(0), flag.Args()[1:], *passwd, *showSteps, &common)
	stop()
	if err != nil {
		cli.Fatal(tool, err)
	}
}

func inspect(fname string, path []string, passwd string, showSteps bool, common *cli.Flags) error {
	var passwords []string
	if passwd != "" {
		passwords = append(passwords, passwd)
	}
	g, err := pdfgraph.Open(fname, &pdfgraph.Options{
		ReadPassword:       pdfgraph.TerminalPassword(passwords...),
		UnsupportedFilters: pdfgraph.FilterPassThrough,
		Logger:             common.Logger(),
	})
	if err != nil {
		return err
	}
	defer g.Close()

	ctx, err := traverse.Walk(traverse.Root(g), path...)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	if showSteps {
		for _, step := range ctx.Next() {
			fmt.Fprintln(out, step.Desc)
		}
		return nil
	}
	err = ctx.Show(out)
	if err != nil {
		return err
	}
	if steps := ctx.Next(); len(steps) > 0 && len(path) == 0 {
		var descs []string
		for _, step := range steps {
			descs = append(descs, step.Desc)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "next:", strings.Join(descs, ", "))
	}
	return nil
}
