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

// Package cli contains helpers shared by the command line tools.
package cli

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
)

// Flags holds the command line options common to all tools.
type Flags struct {
	CPUProfile string
	MemProfile string
	Verbose    bool
	Version    bool
}

// Register adds the common options to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.CPUProfile, "cpuprofile", "", "write cpu profile to `file`")
	fs.StringVar(&f.MemProfile, "memprofile", "", "write memory profile to `file`")
	fs.BoolVar(&f.Verbose, "v", false, "report recovered errors")
	fs.BoolVar(&f.Version, "version", false, "show version information and exit")
}

// Logger returns the logger selected by the -v flag.
func (f *Flags) Logger() *slog.Logger {
	level := slog.LevelError
	if f.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Version describes the tool, including the module version or the VCS
// revision it was built from, if known.
func Version(tool string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return tool
	}

	if v := info.Main.Version; v != "" && v != "(devel)" {
		return fmt.Sprintf("%s (%s %s)", tool, info.Main.Path, v)
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return tool
	}
	rev = rev[:min(len(rev), 8)]
	if dirty {
		rev += "+dirty"
	}
	return fmt.Sprintf("%s (%s %s)", tool, info.Main.Path, rev)
}

// StartProfile starts the profiles requested on the command line.  The
// returned function must be called before the program exits.
func (f *Flags) StartProfile() (stop func(), err error) {
	var cpuFile *os.File
	if f.CPUProfile != "" {
		cpuFile, err = os.Create(f.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		err = pprof.StartCPUProfile(cpuFile)
		if err != nil {
			cpuFile.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
	}

	memProfile := f.MemProfile
	stop = func() {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}
		if memProfile == "" {
			return
		}
		err := writeHeapProfile(memProfile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "memory profile:", err)
		}
	}
	return stop, nil
}

func writeHeapProfile(fname string) error {
	out, err := os.Create(fname)
	if err != nil {
		return err
	}
	runtime.GC()
	err = pprof.Lookup("allocs").WriteTo(out, 0)
	if err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Fatal prints an error message and exits the program.
func Fatal(tool string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", tool, err)
	os.Exit(1)
}

// CheckOutput reports an error if the output file exists and overwriting
// was not requested.
func CheckOutput(fname string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(fname)
	if err == nil {
		return fmt.Errorf("output file %q already exists", fname)
	}
	if !os.IsNotExist(err) {
		return err
	}
	return nil
}
