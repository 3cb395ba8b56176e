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

// Pdf-rewrite writes a new copy of a PDF file.
//
// By default, all objects are written into a new file, using object
// streams and a cross-reference stream where the PDF version allows it.
// The tool can also remove or add encryption, and can append an
// incremental update instead of rewriting the file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"seehuhn.de/go/pdfgraph"
	"seehuhn.de/go/pdfgraph/tools/internal/cli"
	"seehuhn.de/go/pdfgraph/walker"
)

const tool = "pdf-rewrite"

// config holds the command line flag values which affect the output.
type config struct {
	incremental bool
	decrypt     bool
	gc          bool
	cipher      string
	userPwd     string
	ownerPwd    string
	objStmSize  int
}

func main() {
	var common cli.Flags
	common.Register(flag.CommandLine)
	var cfg config
	out := flag.String("o", "out.pdf", "output file name")
	force := flag.Bool("f", false, "overwrite output file if it exists")
	passwd := flag.String("p", "", "the password to open the input file")
	flag.BoolVar(&cfg.incremental, "incremental", false, "append an incremental update")
	flag.BoolVar(&cfg.decrypt, "decrypt", false, "remove encryption")
	flag.BoolVar(&cfg.gc, "gc", false, "remove unreachable objects")
	flag.StringVar(&cfg.cipher, "encrypt", "", "encrypt the output (rc4-40, rc4-128, aes-128, aes-256)")
	flag.StringVar(&cfg.userPwd, "user", "", "user password for -encrypt")
	flag.StringVar(&cfg.ownerPwd, "owner", "", "owner password for -encrypt")
	flag.IntVar(&cfg.objStmSize, "objstm", 0, "maximum number of objects per object stream (-1 to disable)")
	flag.Parse()

	if common.Version {
		fmt.Println(cli.Version(tool))
		return
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: need exactly one input file")
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
	defer stop()

	var passwords []string
	if *passwd != "" {
		passwords = append(passwords, *passwd)
	}
	src, err := pdfgraph.Open(flag.Arg(0), &pdfgraph.Options{
		ReadPassword:     pdfgraph.TerminalPassword(passwords...),
		ObjectStreamSize: cfg.objStmSize,
		Logger:           common.Logger(),
	})
	if err != nil {
		cli.Fatal(tool, err)
	}
	defer src.Close()

	data, err := rewrite(src, &cfg)
	if err != nil {
		cli.Fatal(tool, err)
	}
	err = os.WriteFile(*out, data, 0o644)
	if err != nil {
		cli.Fatal(tool, err)
	}
}

// rewrite serializes the graph as requested by cfg.
func rewrite(src *pdfgraph.Graph, cfg *config) ([]byte, error) {
	enc, err := cfg.encryption()
	if err != nil {
		return nil, err
	}

	if cfg.incremental && (enc != nil || cfg.decrypt) {
		return nil, errIncrementalEncryption
	}
	if cfg.gc {
		_, err := collectGarbage(src)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case cfg.incremental:
		return src.Save(pdfgraph.IncrementalAppend)
	case enc == nil && !cfg.decrypt:
		return src.Save(pdfgraph.FullRewrite)
	}

	// Changing the encryption requires a new graph.
	dst, err := pdfgraph.NewGraph(src.Version(), &pdfgraph.Options{
		Encryption:       enc,
		ObjectStreamSize: cfg.objStmSize,
	})
	if err != nil {
		return nil, err
	}
	c := pdfgraph.NewCopier(dst, src)
	trailer := src.Trailer()
	root, ok := trailer["Root"].(pdfgraph.Reference)
	if !ok {
		return nil, errors.New("missing document catalog")
	}
	newRoot, err := c.CopyReference(root)
	if err != nil {
		return nil, err
	}
	err = dst.SetRoot(newRoot)
	if err != nil {
		return nil, err
	}
	if info, ok := trailer["Info"].(pdfgraph.Reference); ok {
		newInfo, err := c.CopyReference(info)
		if err != nil {
			return nil, err
		}
		err = dst.SetInfo(newInfo)
		if err != nil {
			return nil, err
		}
	}
	return dst.Save(pdfgraph.FullRewrite)
}

// collectGarbage frees all objects which cannot be reached from the
// trailer, and returns the number of freed objects.  Object streams and
// cross-reference streams are kept, since older parts of the file may
// still refer to them.
func collectGarbage(g *pdfgraph.Graph) (int, error) {
	reachable, err := walker.Reachable(g)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, ref := range g.Objects() {
		if reachable[ref] {
			continue
		}
		obj, err := g.Get(ref)
		if err != nil {
			return count, err
		}
		if stm, ok := obj.(*pdfgraph.Stream); ok {
			if tp := stm.Dict["Type"]; tp == pdfgraph.Name("ObjStm") || tp == pdfgraph.Name("XRef") {
				continue
			}
		}
		err = g.Free(ref)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// encryption returns the encryption options selected by -encrypt, or nil
// if the output is not encrypted with new settings.
func (cfg *config) encryption() (*pdfgraph.EncryptionOptions, error) {
	if cfg.cipher == "" {
		return nil, nil
	}
	opt := &pdfgraph.EncryptionOptions{
		UserPassword:  cfg.userPwd,
		OwnerPassword: cfg.ownerPwd,
		Permissions:   pdfgraph.PermAll,
	}
	switch cfg.cipher {
	case "rc4-40":
		opt.Cipher = pdfgraph.CipherRC4
		opt.KeyLength = 40
	case "rc4-128":
		opt.Cipher = pdfgraph.CipherRC4
		opt.KeyLength = 128
	case "aes-128":
		opt.Cipher = pdfgraph.CipherAESV2
	case "aes-256":
		opt.Cipher = pdfgraph.CipherAESV3
	default:
		return nil, fmt.Errorf("unknown cipher %q", cfg.cipher)
	}
	return opt, nil
}

var errIncrementalEncryption = errors.New("encryption cannot be changed in an incremental update")
