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
	"os"

	"golang.org/x/term"
)

// TerminalPassword returns a callback for [Options.ReadPassword].  The
// callback first tries the given passwords in order, and then prompts for
// a password on the terminal.  If standard input is not a terminal, no
// prompt is shown and authentication fails once the list is exhausted.
func TerminalPassword(passwords ...string) func(ID []byte, try int) string {
	return func(ID []byte, try int) string {
		if try < len(passwords) {
			return passwords[try]
		}

		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return ""
		}
		fmt.Fprintf(os.Stderr, "password for document %x: ", ID)
		passwd, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return string(passwd)
	}
}
