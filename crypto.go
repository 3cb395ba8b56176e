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
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"errors"
	"fmt"
	"io"
)

// CipherMethod identifies the cipher used to encrypt strings or streams.
type CipherMethod int

const (
	// CipherNone leaves the data unchanged.  This corresponds to the
	// Identity crypt filter.
	CipherNone CipherMethod = iota

	// CipherRC4 is RC4 with a key length between 40 and 128 bits
	// (crypt filter method V2).
	CipherRC4

	// CipherAESV2 is AES-128 in CBC mode.
	CipherAESV2

	// CipherAESV3 is AES-256 in CBC mode.
	CipherAESV3
)

func (m CipherMethod) String() string {
	switch m {
	case CipherNone:
		return "Identity"
	case CipherRC4:
		return "RC4"
	case CipherAESV2:
		return "AES-128"
	case CipherAESV3:
		return "AES-256"
	default:
		return fmt.Sprintf("cipher#%d", int(m))
	}
}

// CryptoBackend provides the cryptographic primitives used to encrypt and
// decrypt PDF files.  A backend is chosen when a graph is opened or created,
// see [Options.Crypto].
type CryptoBackend interface {
	// DeriveKey computes the key for a single object from the file
	// encryption key.
	DeriveKey(fileKey []byte, ref Reference, m CipherMethod) []byte

	// Encrypt encrypts data.  The input slice is not modified.
	Encrypt(m CipherMethod, key, data []byte) ([]byte, error)

	// Decrypt decrypts data.  The input slice is not modified.
	Decrypt(m CipherMethod, key, data []byte) ([]byte, error)
}

// StandardCrypto implements [CryptoBackend] using the ciphers from the Go
// standard library.
type StandardCrypto struct {
	// Rand is used to generate initialization vectors for AES.
	// If this is nil, crypto/rand.Reader is used.
	Rand io.Reader
}

// DeriveKey implements the [CryptoBackend] interface.
func (StandardCrypto) DeriveKey(fileKey []byte, ref Reference, m CipherMethod) []byte {
	if m == CipherAESV3 {
		return fileKey
	}
	return DeriveObjectKey(fileKey, ref, m == CipherAESV2)
}

// Encrypt implements the [CryptoBackend] interface.
func (sc StandardCrypto) Encrypt(m CipherMethod, key, data []byte) ([]byte, error) {
	switch m {
	case CipherNone:
		return data, nil
	case CipherRC4:
		c, err := rc4.NewCipher(key)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		c.XORKeyStream(out, data)
		return out, nil
	case CipherAESV2, CipherAESV3:
		c, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}

		n := len(data)
		nPad := 16 - n%16
		out := make([]byte, 16+n+nPad) // iv | c(data|padding)
		rnd := sc.Rand
		if rnd == nil {
			rnd = rand.Reader
		}
		iv := out[:16]
		_, err = io.ReadFull(rnd, iv)
		if err != nil {
			return nil, err
		}
		copy(out[16:], data)
		for i := 16 + n; i < len(out); i++ {
			out[i] = byte(nPad)
		}
		cbc := cipher.NewCBCEncrypter(c, iv)
		cbc.CryptBlocks(out[16:], out[16:])
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported cipher %s", m)
	}
}

// Decrypt implements the [CryptoBackend] interface.
func (StandardCrypto) Decrypt(m CipherMethod, key, data []byte) ([]byte, error) {
	switch m {
	case CipherNone:
		return data, nil
	case CipherRC4:
		c, err := rc4.NewCipher(key)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		c.XORKeyStream(out, data)
		return out, nil
	case CipherAESV2, CipherAESV3:
		if len(data) < 32 || len(data)%16 != 0 {
			return nil, errCorrupted
		}
		c, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data)-16)
		cbc := cipher.NewCBCDecrypter(c, data[:16])
		cbc.CryptBlocks(out, data[16:])

		nPad := int(out[len(out)-1])
		if nPad < 1 || nPad > 16 {
			return nil, errCorrupted
		}
		return out[:len(out)-nPad], nil
	default:
		return nil, fmt.Errorf("unsupported cipher %s", m)
	}
}

// DeriveObjectKey computes the encryption key for a single object, using
// algorithm 1 from section 7.6.2 of ISO 32000-2:2020.  If aes is set, the
// key is derived for use with AES-128, otherwise for RC4.
func DeriveObjectKey(fileKey []byte, ref Reference, aes bool) []byte {
	h := md5.New()
	h.Write(fileKey)
	num := ref.Number()
	gen := ref.Generation()
	h.Write([]byte{
		byte(num), byte(num >> 8), byte(num >> 16),
		byte(gen), byte(gen >> 8)})
	if aes {
		h.Write([]byte("sAlT"))
	}
	l := min(len(fileKey)+5, 16)
	return h.Sum(nil)[:l]
}

// Exemptions lists the objects which are stored without encryption in an
// encrypted file.
type Exemptions struct {
	// EncryptDict is the reference of the encryption dictionary, or 0 if
	// the encryption dictionary is a direct object.
	EncryptDict Reference

	// XRefStreams is set if cross-reference streams are unencrypted.
	// This is always the case for files which follow the PDF standard.
	XRefStreams bool

	// Metadata is set if the data of metadata streams is not encrypted
	// (/EncryptMetadata false).
	Metadata bool

	// Objects lists additional objects which are stored unencrypted.
	Objects []Reference
}

// exemptObject reports whether the strings and stream data of an object
// are stored without encryption.
func (e *Exemptions) exemptObject(ref Reference, obj Object) bool {
	if ref != 0 && ref == e.EncryptDict {
		return true
	}
	for _, x := range e.Objects {
		if x == ref {
			return true
		}
	}
	if stm, ok := obj.(*Stream); ok && e.XRefStreams {
		if tp, _ := stm.Dict["Type"].(Name); tp == "XRef" {
			return true
		}
	}
	return false
}

// exemptStream reports whether the payload of stm is stored without
// encryption.  Strings in the stream dictionary may still be encrypted.
func (e *Exemptions) exemptStream(ref Reference, stm *Stream) bool {
	if e.exemptObject(ref, stm) {
		return true
	}
	if tp, _ := stm.Dict["Type"].(Name); tp == "Metadata" && e.Metadata {
		return true
	}

	// streams with an Identity crypt filter are not encrypted
	switch f := stm.Dict["Filter"].(type) {
	case Name:
		if f == "Crypt" {
			parms, _ := stm.Dict["DecodeParms"].(Dict)
			name, ok := parms["Name"].(Name)
			return !ok || name == "Identity"
		}
	case Array:
		if len(f) > 0 && f[0] == Name("Crypt") {
			var parms Dict
			if pa, ok := stm.Dict["DecodeParms"].(Array); ok && len(pa) > 0 {
				parms, _ = pa[0].(Dict)
			}
			name, ok := parms["Name"].(Name)
			return !ok || name == "Identity"
		}
	}
	return false
}

// Codec encrypts and decrypts the strings and streams of one document.
type Codec struct {
	backend CryptoBackend
	key     []byte
	strF    CipherMethod
	stmF    CipherMethod

	Exempt Exemptions
}

// NewCodec returns a codec which uses the given file encryption key.
// If backend is nil, [StandardCrypto] is used.
func NewCodec(backend CryptoBackend, fileKey []byte, strF, stmF CipherMethod, exempt Exemptions) *Codec {
	if backend == nil {
		backend = StandardCrypto{}
	}
	return &Codec{
		backend: backend,
		key:     fileKey,
		strF:    strF,
		stmF:    stmF,
		Exempt:  exempt,
	}
}

// EncryptString encrypts a string which is part of the object ref.
func (c *Codec) EncryptString(ref Reference, data []byte) ([]byte, error) {
	return c.apply(c.strF, ref, data, true)
}

// DecryptString decrypts a string which is part of the object ref.
func (c *Codec) DecryptString(ref Reference, data []byte) ([]byte, error) {
	return c.apply(c.strF, ref, data, false)
}

// EncryptStream encrypts the payload of the stream ref.
func (c *Codec) EncryptStream(ref Reference, data []byte) ([]byte, error) {
	return c.apply(c.stmF, ref, data, true)
}

// DecryptStream decrypts the payload of the stream ref.
func (c *Codec) DecryptStream(ref Reference, data []byte) ([]byte, error) {
	return c.apply(c.stmF, ref, data, false)
}

func (c *Codec) apply(m CipherMethod, ref Reference, data []byte, encrypt bool) ([]byte, error) {
	if m == CipherNone {
		return data, nil
	}
	key := c.backend.DeriveKey(c.key, ref, m)
	if encrypt {
		res, err := c.backend.Encrypt(m, key, data)
		if err != nil {
			return nil, fmt.Errorf("encrypting object %s: %w", ref, err)
		}
		return res, nil
	}
	res, err := c.backend.Decrypt(m, key, data)
	if err != nil {
		return nil, &DecryptionError{Ref: ref, Err: err}
	}
	return res, nil
}

// decryptObject decrypts all strings inside a freshly parsed object and
// arranges for the payload of streams to be decrypted when it is loaded.
// The object is modified in place.  On error, the object must be
// discarded.
func (c *Codec) decryptObject(ref Reference, obj Object) (Object, error) {
	if c.Exempt.exemptObject(ref, obj) {
		return obj, nil
	}

	var walk func(Object) (Object, error)
	walk = func(obj Object) (Object, error) {
		switch obj := obj.(type) {
		case String:
			dec, err := c.DecryptString(ref, obj)
			if err != nil {
				return nil, err
			}
			return String(dec), nil
		case Array:
			for i, elem := range obj {
				dec, err := walk(elem)
				if err != nil {
					return nil, err
				}
				obj[i] = dec
			}
		case Dict:
			for key, val := range obj {
				dec, err := walk(val)
				if err != nil {
					return nil, err
				}
				obj[key] = dec
			}
		case *Stream:
			_, err := walk(obj.Dict)
			if err != nil {
				return nil, err
			}
			if !c.Exempt.exemptStream(ref, obj) && obj.load != nil {
				load := obj.load
				obj.load = func() ([]byte, error) {
					data, err := load()
					if err != nil {
						return nil, err
					}
					return c.DecryptStream(ref, data)
				}
			}
		}
		return obj, nil
	}
	return walk(obj)
}

var (
	errCorrupted       = errors.New("corrupted ciphertext")
	errInvalidPassword = errors.New("invalid password")
)
