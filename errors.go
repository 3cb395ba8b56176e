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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Sentinel errors for the different failure classes.  Use [errors.Is] to
// check which class an error belongs to.
var (
	ErrMalformed         = errors.New("malformed object")
	ErrCorruptXRef       = errors.New("corrupt cross-reference data")
	ErrDanglingReference = errors.New("dangling reference")
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrStaleReference    = errors.New("stale reference")

	// ErrFreeObject is returned when a free object is modified.
	ErrFreeObject = errors.New("object is free")

	// ErrSaveInProgress is returned by mutating methods while the graph
	// is being saved.
	ErrSaveInProgress = errors.New("save in progress")

	// ErrTruncatedStream is reported as a warning when the encoded data of
	// a stream ends early.  The data decoded so far is used.
	ErrTruncatedStream = errors.New("truncated stream data")

	// ErrNoSource is returned when an incremental update is requested
	// for a graph which was not read from a file.
	ErrNoSource = errors.New("graph has no underlying file")
)

// MalformedFileError indicates that a PDF file could not be parsed.
type MalformedFileError struct {
	Pos int64
	Loc []string
	Err error
}

func (err *MalformedFileError) Error() string {
	parts := []string{"not a valid PDF file"}
	for i := len(err.Loc) - 1; i >= 0; i-- {
		parts = append(parts, err.Loc[i])
	}
	if err.Err != nil {
		parts = append(parts, err.Err.Error())
	}
	tail := ""
	if err.Pos > 0 {
		tail = " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	return strings.Join(parts, ": ") + tail
}

func (err *MalformedFileError) Unwrap() error {
	return err.Err
}

// Is implements the interface used by [errors.Is].
func (err *MalformedFileError) Is(target error) bool {
	return target == ErrMalformed
}

// Wrap adds location information to an error.
// If err is not a MalformedFileError, it is returned unchanged.
func Wrap(err error, loc string) error {
	var mf *MalformedFileError
	if !errors.As(err, &mf) {
		return err
	}
	res := *mf
	res.Loc = append(slices.Clone(mf.Loc), loc)
	return &res
}

// CorruptXRefError indicates that the cross-reference information of a
// file cannot be used.
type CorruptXRefError struct {
	Pos int64
	Err error
}

func (err *CorruptXRefError) Error() string {
	msg := "corrupt cross-reference table"
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	if err.Pos > 0 {
		msg += " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	return msg
}

func (err *CorruptXRefError) Unwrap() error {
	return err.Err
}

// Is implements the interface used by [errors.Is].
func (err *CorruptXRefError) Is(target error) bool {
	return target == ErrCorruptXRef
}

// DanglingReferenceError is returned when an object refers to free or
// non-existent objects.
type DanglingReferenceError struct {
	From Reference
	To   []Reference
}

func (err *DanglingReferenceError) Error() string {
	targets := make([]string, len(err.To))
	for i, ref := range err.To {
		targets[i] = ref.String()
	}
	return fmt.Sprintf("object %s refers to missing objects %s",
		err.From, strings.Join(targets, ", "))
}

// Is implements the interface used by [errors.Is].
func (err *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// UnsupportedFilterError is returned when a stream uses a filter
// which cannot be applied.
type UnsupportedFilterError struct {
	Name Name
	Op   string // "decode" or "encode"
}

func (err *UnsupportedFilterError) Error() string {
	op := err.Op
	if op == "" {
		op = "decode"
	}
	return "cannot " + op + " filter " + string(err.Name)
}

// Is implements the interface used by [errors.Is].
func (err *UnsupportedFilterError) Is(target error) bool {
	return target == ErrUnsupportedFilter
}

// DecryptionError is returned when the contents of an object cannot be
// decrypted.
type DecryptionError struct {
	Ref Reference
	Err error
}

func (err *DecryptionError) Error() string {
	msg := "cannot decrypt object " + err.Ref.String()
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *DecryptionError) Unwrap() error {
	return err.Err
}

// Is implements the interface used by [errors.Is].
func (err *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// StaleReferenceError describes a reference whose generation number
// does not match the object stored under the same object number.
// Stale references resolve to the null object; this error is only
// reported as a warning.
type StaleReferenceError struct {
	Ref     Reference
	Current uint16
}

func (err *StaleReferenceError) Error() string {
	return fmt.Sprintf("stale reference %s (current generation %d)",
		err.Ref, err.Current)
}

// Is implements the interface used by [errors.Is].
func (err *StaleReferenceError) Is(target error) bool {
	return target == ErrStaleReference
}

// AuthenticationError indicates that authentication failed because the
// correct password has not been supplied.
type AuthenticationError struct {
	ID []byte
}

func (err *AuthenticationError) Error() string {
	return "authentication failed for document ID " + fmt.Sprintf("%x", err.ID)
}

// Is implements the interface used by [errors.Is].
func (err *AuthenticationError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

var (
	errVersion = errors.New("unsupported PDF version")
	errNoPDF   = errors.New("PDF header not found")
)
