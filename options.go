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

import "log/slog"

// Options control how a graph is read and written.
// A nil *Options is equivalent to the zero value.
type Options struct {
	// ReadPassword is used to query the user for a password for an
	// encrypted document with the given ID.  The first call has try == 0.
	// If the password was wrong, the function is called again with
	// increasing values of try.  Returning the empty string aborts
	// authentication and an [AuthenticationError] is reported.
	ReadPassword func(ID []byte, try int) string

	// Crypto provides the cipher implementations.  If this is nil,
	// [StandardCrypto] is used.
	Crypto CryptoBackend

	// ExemptObjects lists objects which are stored without encryption in
	// an encrypted document.
	ExemptObjects []Reference

	// ObjectStreamSize is the maximum number of objects stored in one
	// object stream when a document is rewritten.  The value 0 selects a
	// default of 100; negative values disable object streams.
	ObjectStreamSize int

	// MemoryMap makes [Open] map the file into memory, instead of using
	// read system calls for every access.
	MemoryMap bool

	// DisableReconstruction makes damaged cross-reference data a fatal
	// error, instead of rebuilding the table by scanning the file.
	DisableReconstruction bool

	// DefaultFilters is applied to the payload of streams created by
	// [Graph.NewStream].  If this is nil, FlateDecode is used.  Use an
	// empty, non-nil slice to store new streams uncompressed.
	DefaultFilters []*FilterInfo

	// UnsupportedFilters determines what [Graph.DecodeStream] does when
	// it encounters a filter it cannot decode.
	UnsupportedFilters FilterPolicy

	// Encryption, if set, causes new documents created with [NewGraph] to
	// be encrypted.
	Encryption *EncryptionOptions

	// Logger receives diagnostic messages.  If this is nil, messages are
	// discarded.
	Logger *slog.Logger

	// OnWarning, if set, is called for every problem which was recovered
	// from, for example a stale reference or a wrong stream length.
	OnWarning func(error)
}

// FilterPolicy determines how unsupported stream filters are handled.
type FilterPolicy int

const (
	// FilterFail causes decoding to fail with an [UnsupportedFilterError].
	FilterFail FilterPolicy = iota

	// FilterPassThrough stops decoding at the first unsupported filter
	// and returns the data as it is at this point.
	FilterPassThrough
)

const defaultObjectStreamSize = 100

func (opt *Options) objectStreamSize() int {
	switch {
	case opt.ObjectStreamSize == 0:
		return defaultObjectStreamSize
	case opt.ObjectStreamSize < 0:
		return 0
	default:
		return opt.ObjectStreamSize
	}
}

func (opt *Options) defaultFilters() []*FilterInfo {
	if opt.DefaultFilters == nil {
		return []*FilterInfo{FilterFlate}
	}
	return opt.DefaultFilters
}

func (opt *Options) logger() *slog.Logger {
	if opt.Logger != nil {
		return opt.Logger
	}
	return slog.New(slog.DiscardHandler)
}
