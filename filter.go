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
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdfgraph/ascii85"
	"seehuhn.de/go/pdfgraph/internal/filter/asciihex"
	"seehuhn.de/go/pdfgraph/internal/filter/ccittfax"
	"seehuhn.de/go/pdfgraph/internal/filter/dct"
	"seehuhn.de/go/pdfgraph/internal/filter/predict"
	"seehuhn.de/go/pdfgraph/internal/filter/runlength"
	"seehuhn.de/go/pdfgraph/lzw"
)

// FilterInfo describes one filter in the filter chain of a stream.
type FilterInfo struct {
	Name  Name
	Parms Dict
}

// FilterFlate is the default filter for new streams.
var FilterFlate = &FilterInfo{Name: "FlateDecode"}

var filterAbbrev = map[Name]Name{
	"AHx": "ASCIIHexDecode",
	"A85": "ASCII85Decode",
	"LZW": "LZWDecode",
	"Fl":  "FlateDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

func (fi *FilterInfo) name() Name {
	if long, ok := filterAbbrev[fi.Name]; ok {
		return long
	}
	return fi.Name
}

func (fi *FilterInfo) getInt(key Name, def int) int {
	if x, ok := fi.Parms[key].(Integer); ok {
		return int(x)
	}
	return def
}

func (fi *FilterInfo) getBool(key Name, def bool) bool {
	if x, ok := fi.Parms[key].(Bool); ok {
		return bool(x)
	}
	return def
}

func (fi *FilterInfo) predictParams() *predict.Params {
	return &predict.Params{
		Predictor:        fi.getInt("Predictor", 1),
		Colors:           fi.getInt("Colors", 1),
		BitsPerComponent: fi.getInt("BitsPerComponent", 8),
		Columns:          fi.getInt("Columns", 1),
	}
}

// canDecode reports whether the decoding step of the filter is implemented.
func (fi *FilterInfo) canDecode() bool {
	switch fi.name() {
	case "FlateDecode", "LZWDecode", "ASCII85Decode", "ASCIIHexDecode",
		"RunLengthDecode", "CCITTFaxDecode", "DCTDecode", "JPXDecode",
		"JBIG2Decode":
		return true
	case "Crypt":
		name, _ := fi.Parms["Name"].(Name)
		return name == "" || name == "Identity"
	}
	return false
}

func (fi *FilterInfo) decoder(r io.Reader) (io.Reader, error) {
	switch fi.name() {
	case "FlateDecode":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, err
		}
		return predict.NewReader(zr, fi.predictParams())
	case "LZWDecode":
		lr := lzw.NewReader(r, fi.getInt("EarlyChange", 1) != 0)
		return predict.NewReader(lr, fi.predictParams())
	case "ASCII85Decode":
		return ascii85.Decode(r), nil
	case "ASCIIHexDecode":
		return asciihex.Decode(r), nil
	case "RunLengthDecode":
		return runlength.Decode(r), nil
	case "CCITTFaxDecode":
		return ccittfax.Decode(r, &ccittfax.Params{
			K:                fi.getInt("K", 0),
			Columns:          fi.getInt("Columns", 1728),
			Rows:             fi.getInt("Rows", 0),
			EncodedByteAlign: fi.getBool("EncodedByteAlign", false),
			BlackIs1:         fi.getBool("BlackIs1", false),
		})
	case "DCTDecode":
		return dct.Decode(r)
	case "JPXDecode", "JBIG2Decode":
		// image data is passed on to the consumer unchanged
		return r, nil
	case "Crypt":
		if name, _ := fi.Parms["Name"].(Name); name == "" || name == "Identity" {
			return r, nil
		}
	}
	return nil, &UnsupportedFilterError{Name: fi.Name, Op: "decode"}
}

func (fi *FilterInfo) encoder(w io.WriteCloser) (io.WriteCloser, error) {
	switch fi.name() {
	case "FlateDecode":
		zw, err := zlib.NewWriterLevel(w, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		return predict.NewWriter(&closeChain{zw, w}, fi.predictParams())
	case "LZWDecode":
		lw, err := lzw.NewWriter(w, fi.getInt("EarlyChange", 1) != 0)
		if err != nil {
			return nil, err
		}
		return predict.NewWriter(&closeChain{lw, w}, fi.predictParams())
	case "ASCII85Decode":
		return ascii85.Encode(w), nil
	case "ASCIIHexDecode":
		return asciihex.Encode(w), nil
	case "RunLengthDecode":
		return runlength.Encode(w), nil
	case "DCTDecode", "JPXDecode", "JBIG2Decode":
		// the data is expected to be in encoded form already
		return w, nil
	case "Crypt":
		if name, _ := fi.Parms["Name"].(Name); name == "" || name == "Identity" {
			return w, nil
		}
	}
	return nil, &UnsupportedFilterError{Name: fi.Name, Op: "encode"}
}

// filtersAsDict returns the filter chain in the form used in stream
// dictionaries.
func filtersAsDict(filters []*FilterInfo) (filter, parms Object) {
	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		if len(filters[0].Parms) > 0 {
			parms = filters[0].Parms
		}
		return filters[0].Name, parms
	}
	names := make(Array, len(filters))
	parmArr := make(Array, len(filters))
	hasParms := false
	for i, fi := range filters {
		names[i] = fi.Name
		if len(fi.Parms) > 0 {
			parmArr[i] = fi.Parms
			hasParms = true
		}
	}
	if hasParms {
		parms = parmArr
	}
	return names, parms
}

// closeChain closes two writers in order.  This is used where an encoder
// does not close the writer it writes to.
type closeChain struct {
	io.WriteCloser
	next io.Closer
}

func (c *closeChain) Close() error {
	err := c.WriteCloser.Close()
	if err != nil {
		return err
	}
	return c.next.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// DecodeBytes applies the decoding step of the given filters to data.
// Filters are applied in order.
//
// If the compressed data ends prematurely, the data decoded so far is
// returned without an error.  [Graph.DecodeStream] reports this case as a
// warning.
func DecodeBytes(data []byte, filters []*FilterInfo) ([]byte, error) {
	out, _, err := decodeBytes(data, filters)
	return out, err
}

// decodeBytes is like DecodeBytes, but also reports whether the decoded
// data is incomplete.
func decodeBytes(data []byte, filters []*FilterInfo) (out []byte, truncated bool, err error) {
	var r io.Reader = bytes.NewReader(data)
	for _, fi := range filters {
		r, err = fi.decoder(r)
		if err != nil {
			return nil, false, err
		}
	}
	out, err = io.ReadAll(r)
	if errors.Is(err, io.ErrUnexpectedEOF) && len(out) > 0 {
		// Truncated compressed data is common; keep what could be decoded.
		return out, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, false, nil
}

// EncodeBytes encodes data so that applying DecodeBytes with the same
// filters recovers the original data.
func EncodeBytes(data []byte, filters []*FilterInfo) ([]byte, error) {
	buf := &bytes.Buffer{}
	var w io.WriteCloser = nopWriteCloser{buf}
	for _, fi := range filters {
		var err error
		w, err = fi.encoder(w)
		if err != nil {
			return nil, err
		}
	}
	_, err := w.Write(data)
	if err != nil {
		return nil, err
	}
	err = w.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// getFilters reads the filter chain from a stream dictionary.
// If r is nil, indirect references are not followed.
func getFilters(r Getter, dict Dict) ([]*FilterInfo, error) {
	resolve := func(obj Object) (Object, error) {
		if r == nil {
			return obj, nil
		}
		return Resolve(r, obj)
	}

	filter, err := resolve(dict["Filter"])
	if err != nil {
		return nil, err
	}
	parms, err := resolve(dict["DecodeParms"])
	if err != nil {
		return nil, err
	}

	switch f := filter.(type) {
	case nil:
		return nil, nil
	case Name:
		fi := &FilterInfo{Name: f}
		fi.Parms, _ = parms.(Dict)
		if pa, ok := parms.(Array); ok && len(pa) > 0 {
			fi.Parms, _ = pa[0].(Dict)
		}
		return []*FilterInfo{fi}, nil
	case Array:
		pa, _ := parms.(Array)
		res := make([]*FilterInfo, len(f))
		for i, obj := range f {
			name, err := resolve(obj)
			if err != nil {
				return nil, err
			}
			n, ok := name.(Name)
			if !ok {
				return nil, &MalformedFileError{Err: fmt.Errorf("invalid filter %s", Format(name))}
			}
			fi := &FilterInfo{Name: n}
			if i < len(pa) {
				p, err := resolve(pa[i])
				if err != nil {
					return nil, err
				}
				fi.Parms, _ = p.(Dict)
			}
			res[i] = fi
		}
		return res, nil
	}
	return nil, &MalformedFileError{Err: fmt.Errorf("invalid /Filter %s", Format(filter))}
}
