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
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/xdg-go/stringprep"
)

// EncryptionOptions describes how a new document is encrypted.
type EncryptionOptions struct {
	// UserPassword is needed to open the document.  It may be empty.
	UserPassword string

	// OwnerPassword grants full access.  If empty, the user password is
	// used.
	OwnerPassword string

	// Permissions lists what users who only know the user password may
	// do with the document.
	Permissions Perm

	// Cipher selects the encryption algorithm.  The zero value selects
	// AES-256.
	Cipher CipherMethod

	// KeyLength is the key length in bits for RC4.  Valid values are
	// multiples of 8 between 40 and 128.  0 selects 128.
	KeyLength int

	// UnencryptedMetadata leaves metadata streams unencrypted.
	UnencryptedMetadata bool
}

// security holds the state of the standard security handler for one
// document.
type security struct {
	sec  *stdSecHandler
	V    int
	strF CipherMethod
	stmF CipherMethod

	// length is the key length in bits, as stored in /Length.
	length int
}

// openSecurity reads an encryption dictionary and authenticates the user.
func openSecurity(enc Dict, id []byte, readPwd func([]byte, int) string) (*security, error) {
	if filter, _ := enc["Filter"].(Name); filter != "Standard" {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("unsupported security handler %q", filter),
		}
	}

	V, _ := enc["V"].(Integer)
	res := &security{V: int(V)}
	var keyBytes int
	switch V {
	case 1:
		res.strF, res.stmF = CipherRC4, CipherRC4
		res.length = 40
		keyBytes = 5
	case 2, 3:
		res.strF, res.stmF = CipherRC4, CipherRC4
		res.length = 40
		if l, ok := enc["Length"].(Integer); ok {
			res.length = int(l)
		}
		if res.length < 40 || res.length > 128 || res.length%8 != 0 {
			return nil, &MalformedFileError{
				Err: fmt.Errorf("invalid key length %d", res.length),
			}
		}
		keyBytes = res.length / 8
	case 4, 5:
		cf, _ := enc["CF"].(Dict)
		var err error
		res.stmF, err = cryptFilterMethod(enc["StmF"], cf)
		if err != nil {
			return nil, Wrap(err, "StmF")
		}
		res.strF, err = cryptFilterMethod(enc["StrF"], cf)
		if err != nil {
			return nil, Wrap(err, "StrF")
		}
		if V == 4 {
			keyBytes = 16
		} else {
			keyBytes = 32
		}
		res.length = 8 * keyBytes
	default:
		return nil, &MalformedFileError{Err: fmt.Errorf("invalid V=%d", V)}
	}

	sec, err := openStdSecHandler(enc, keyBytes, id, readPwd)
	if err != nil {
		return nil, Wrap(err, "standard security handler")
	}
	res.sec = sec

	// check the password now, so that failures are reported by Open
	_, err = sec.GetKey(false)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// cryptFilterMethod determines the cipher for a /StmF or /StrF entry.
func cryptFilterMethod(obj Object, CF Dict) (CipherMethod, error) {
	name, ok := obj.(Name)
	if !ok || name == "Identity" {
		return CipherNone, nil
	}
	cfDict, ok := CF[name].(Dict)
	if !ok {
		return 0, &MalformedFileError{
			Err: errors.New("missing crypt filter " + string(name)),
		}
	}
	switch cfDict["CFM"] {
	case Name("V2"):
		return CipherRC4, nil
	case Name("AESV2"):
		return CipherAESV2, nil
	case Name("AESV3"):
		return CipherAESV3, nil
	case Name("None"), nil:
		return CipherNone, nil
	}
	return 0, &MalformedFileError{
		Err: fmt.Errorf("unsupported crypt filter method %s", Format(cfDict["CFM"])),
	}
}

// newSecurity sets up the standard security handler for a new document.
func newSecurity(opt *EncryptionOptions, id []byte) (*security, error) {
	res := &security{}
	switch opt.Cipher {
	case CipherRC4:
		res.length = opt.KeyLength
		if res.length == 0 {
			res.length = 128
		}
		if res.length < 40 || res.length > 128 || res.length%8 != 0 {
			return nil, fmt.Errorf("invalid RC4 key length %d", res.length)
		}
		res.V = 2
		if res.length == 40 {
			res.V = 1
		}
		res.strF, res.stmF = CipherRC4, CipherRC4
	case CipherAESV2:
		res.V = 4
		res.length = 128
		res.strF, res.stmF = CipherAESV2, CipherAESV2
	case CipherAESV3, CipherNone:
		res.V = 5
		res.length = 256
		res.strF, res.stmF = CipherAESV3, CipherAESV3
	default:
		return nil, fmt.Errorf("unsupported cipher %s", opt.Cipher)
	}

	sec, err := createStdSecHandler(id, opt.UserPassword, opt.OwnerPassword,
		opt.Permissions, res.length, res.V, opt.UnencryptedMetadata)
	if err != nil {
		return nil, err
	}
	res.sec = sec
	return res, nil
}

// minVersion returns the lowest PDF version which supports the encryption
// scheme.
func (s *security) minVersion() Version {
	switch {
	case s.V >= 5:
		return V2_0
	case s.V == 4:
		return V1_6
	case s.V >= 2:
		return V1_4
	default:
		return V1_1
	}
}

// asDict returns the encryption dictionary.
func (s *security) asDict() Dict {
	dict := Dict{
		"Filter": Name("Standard"),
		"V":      Integer(s.V),
	}
	switch s.V {
	case 2, 3:
		dict["Length"] = Integer(s.length)
	case 4, 5:
		cfm := map[CipherMethod]Name{
			CipherRC4:   "V2",
			CipherAESV2: "AESV2",
			CipherAESV3: "AESV3",
		}
		CF := Dict{}
		for _, m := range []CipherMethod{s.stmF, s.strF} {
			if m == CipherNone {
				continue
			}
			CF[Name("Std"+cfm[m])] = Dict{
				"CFM":    cfm[m],
				"Length": Integer(s.length / 8),
			}
		}
		dict["CF"] = CF
		dict["Length"] = Integer(s.length)
		for key, m := range map[Name]CipherMethod{"StmF": s.stmF, "StrF": s.strF} {
			if m == CipherNone {
				dict[key] = Name("Identity")
			} else {
				dict[key] = Name("Std" + cfm[m])
			}
		}
	}

	sec := s.sec
	dict["R"] = Integer(sec.R)
	dict["O"] = String(sec.O)
	dict["U"] = String(sec.U)
	dict["P"] = Integer(int32(sec.P))
	if sec.unencryptedMetaData {
		dict["EncryptMetadata"] = Bool(false)
	}
	if sec.R == 6 {
		dict["OE"] = String(sec.OE)
		dict["UE"] = String(sec.UE)
		dict["Perms"] = String(sec.Perms)
	}
	return dict
}

// codec returns an encryption codec for the document.
func (s *security) codec(backend CryptoBackend, exempt Exemptions) (*Codec, error) {
	key, err := s.sec.GetKey(false)
	if err != nil {
		return nil, err
	}
	exempt.XRefStreams = true
	exempt.Metadata = s.sec.unencryptedMetaData
	return NewCodec(backend, key, s.strF, s.stmF, exempt), nil
}

// Permissions returns the operations permitted to users who only know the
// user password.
func (s *security) Permissions() Perm {
	return stdSecPToPerm(s.sec.R, s.sec.P)
}

// The stdSecHandler authenticates the user via a pair of passwords.
// The "user password" is used to access the contents of the document, the
// "owner password" can be used to control additional permissions.
//
// This is the PDF standard security handler, specified in section 7.6.4 of
// ISO 32000-2:2020.
type stdSecHandler struct {
	// R is the revision of the standard security handler.
	R int

	// ID is the first element of the ID array in the trailer dictionary.
	ID []byte

	// O and U are the password check values from the encryption
	// dictionary.  For R=6, OE and UE hold the encrypted file key and
	// Perms holds the encrypted permissions.
	O, U   []byte
	OE, UE []byte
	Perms  []byte

	// P lists the operations permitted with user access.
	P uint32

	keyBytes int

	readPwd func([]byte, int) string
	key     []byte

	// unencryptedMetaData is the negation of /EncryptMetadata, so that
	// the zero value matches the PDF default.
	unencryptedMetaData bool

	ownerAuthenticated bool
}

// openStdSecHandler creates a new stdSecHandler from the encryption
// dictionary and the document ID.
func openStdSecHandler(enc Dict, keyBytes int, ID []byte, readPwd func([]byte, int) string) (*stdSecHandler, error) {
	R, ok := enc["R"].(Integer)
	if !ok || R < 2 || R == 5 || R > 6 {
		return nil, errors.New("invalid Encrypt.R")
	}
	ouLength := 32
	if R == 6 {
		ouLength = 48
	}

	O, ok := enc["O"].(String)
	if !ok || len(O) < ouLength {
		return nil, errors.New("invalid Encrypt.O")
	}
	U, ok := enc["U"].(String)
	if !ok || len(U) < ouLength {
		return nil, errors.New("invalid Encrypt.U")
	}
	P, ok := enc["P"].(Integer)
	if !ok {
		return nil, errors.New("invalid Encrypt.P")
	}

	emd := true
	if obj, ok := enc["EncryptMetadata"].(Bool); ok && R >= 4 {
		emd = bool(obj)
	}

	sec := &stdSecHandler{
		ID:       ID,
		keyBytes: keyBytes,
		readPwd:  readPwd,

		R: int(R),
		O: []byte(O[:ouLength]),
		U: []byte(U[:ouLength]),
		P: uint32(P),

		unencryptedMetaData: !emd,
	}

	if R == 6 {
		OE, ok := enc["OE"].(String)
		if !ok || len(OE) != 32 {
			return nil, errors.New("invalid Encrypt.OE")
		}
		UE, ok := enc["UE"].(String)
		if !ok || len(UE) != 32 {
			return nil, errors.New("invalid Encrypt.UE")
		}
		Perms, ok := enc["Perms"].(String)
		if !ok || len(Perms) != 16 {
			return nil, errors.New("invalid Encrypt.Perms")
		}
		sec.OE = []byte(OE)
		sec.UE = []byte(UE)
		sec.Perms = []byte(Perms)
	}

	return sec, nil
}

// createStdSecHandler allocates a new, pre-authenticated security handler
// for a new document.
func createStdSecHandler(id []byte, userPwd, ownerPwd string, perm Perm, length, V int, unencryptedMetaData bool) (*stdSecHandler, error) {
	if ownerPwd == "" {
		ownerPwd = userPwd
	}

	var R int
	switch {
	case V < 2 && perm.canR2():
		R = 2
	case V <= 3:
		R = 3
	case V == 4:
		R = 4
	default:
		R = 6
	}

	sec := &stdSecHandler{
		ID:       id,
		keyBytes: length / 8,
		R:        R,
		P:        stdSecPermToP(perm),

		unencryptedMetaData: unencryptedMetaData && R >= 4,
		ownerAuthenticated:  true,
	}

	if R < 6 {
		paddedUserPwd, err := padPasswd(userPwd)
		if err != nil {
			return nil, err
		}
		paddedOwnerPwd, err := padPasswd(ownerPwd)
		if err != nil {
			return nil, err
		}
		sec.O = sec.computeO(paddedUserPwd, paddedOwnerPwd)
		sec.key = sec.computeFileEncryptionKey(paddedUserPwd)
		sec.U = sec.computeU(sec.key)
		return sec, nil
	}

	utf8UserPwd, err := utf8Passwd(userPwd)
	if err != nil {
		return nil, err
	}
	utf8OwnerPwd, err := utf8Passwd(ownerPwd)
	if err != nil {
		return nil, err
	}
	sec.key = make([]byte, 32)
	_, err = rand.Read(sec.key)
	if err != nil {
		return nil, err
	}
	sec.U, sec.UE, err = sec.computeUAndUE(utf8UserPwd)
	if err != nil {
		return nil, err
	}
	sec.O, sec.OE, err = sec.computeOAndOE(utf8OwnerPwd)
	if err != nil {
		return nil, err
	}
	sec.Perms = sec.computePerms(sec.key)
	return sec, nil
}

// GetKey returns the file encryption key.  Passwords are requested via the
// readPwd callback until one works or the callback returns "".
func (sec *stdSecHandler) GetKey(needOwner bool) ([]byte, error) {
	if sec.key != nil && (sec.ownerAuthenticated || !needOwner) {
		return sec.key, nil
	}

	passwd := ""
	try := 0
	for {
		var err error
		if sec.R < 6 {
			var padded []byte
			padded, err = padPasswd(passwd)
			if err == nil {
				err = sec.authenticateOwner(padded)
				if err != nil && !needOwner {
					err = sec.authenticateUser(padded)
				}
			}
		} else {
			var prepared []byte
			prepared, err = utf8Passwd(passwd)
			if err == nil {
				err = sec.authenticateOwner6(prepared)
				if err != nil && !needOwner {
					err = sec.authenticateUser6(prepared)
				}
			}
		}
		if err == nil {
			return sec.key, nil
		}

		if sec.readPwd == nil {
			return nil, &AuthenticationError{sec.ID}
		}
		passwd = sec.readPwd(sec.ID, try)
		try++
		if passwd == "" {
			return nil, &AuthenticationError{sec.ID}
		}
	}
}

// Algorithm 2: compute the file encryption key for R <= 4.
func (sec *stdSecHandler) computeFileEncryptionKey(paddedUserPwd []byte) []byte {
	h := md5.New()
	h.Write(paddedUserPwd)
	h.Write(sec.O)
	h.Write([]byte{
		byte(sec.P), byte(sec.P >> 8), byte(sec.P >> 16), byte(sec.P >> 24)})
	h.Write(sec.ID)
	if sec.unencryptedMetaData && sec.R >= 4 {
		h.Write([]byte{255, 255, 255, 255})
	}
	key := h.Sum(nil)

	if sec.R >= 3 {
		for range 50 {
			h.Reset()
			h.Write(key[:sec.keyBytes])
			key = h.Sum(key[:0])
		}
	}

	return key[:sec.keyBytes]
}

// Algorithm 2.B: the hash used for revision 6.
func slowHash(passwd, salt, U []byte) []byte {
	h := sha256.New()
	h.Write(passwd)
	h.Write(salt)
	h.Write(U)
	K := h.Sum(nil)

	K1 := make([]byte, 64*(len(passwd)+64+len(U)))
	for i := 0; i < 64 || K1[len(K1)-1] > byte(i-32); i++ {
		K1 = K1[:0]
		for range 64 {
			K1 = append(K1, passwd...)
			K1 = append(K1, K...)
			K1 = append(K1, U...)
		}

		c, _ := aes.NewCipher(K[:16])
		cbc := cipher.NewCBCEncrypter(c, K[16:32])
		cbc.CryptBlocks(K1, K1) // len(K1) is a multiple of 64

		// The first 16 bytes of E, as a big-endian integer, modulo 3.
		// Since 256%3 == 1, this is the sum of the bytes modulo 3.
		var rem int
		for _, b := range K1[:16] {
			rem += int(b)
		}

		var h hash.Hash
		switch rem % 3 {
		case 0:
			h = sha256.New()
		case 1:
			h = sha512.New384()
		case 2:
			h = sha512.New()
		}
		h.Write(K1)
		K = h.Sum(K[:0])
	}

	return K[:32]
}

// Algorithm 3: compute O.
func (sec *stdSecHandler) computeO(paddedUserPwd, paddedOwnerPwd []byte) []byte {
	rc4key := sec.ownerKey(paddedOwnerPwd)

	c, _ := rc4.NewCipher(rc4key)
	O := make([]byte, 32)
	c.XORKeyStream(O, paddedUserPwd)
	if sec.R >= 3 {
		key := make([]byte, len(rc4key))
		for i := byte(1); i <= 19; i++ {
			for j := range key {
				key[j] = rc4key[j] ^ i
			}
			c, _ = rc4.NewCipher(key)
			c.XORKeyStream(O, O)
		}
	}
	return O
}

// ownerKey computes the RC4 key used to encrypt the user password in O.
func (sec *stdSecHandler) ownerKey(paddedOwnerPwd []byte) []byte {
	h := md5.New()
	h.Write(paddedOwnerPwd)
	sum := h.Sum(nil)
	if sec.R >= 3 {
		for range 50 {
			h.Reset()
			h.Write(sum[:sec.keyBytes])
			sum = h.Sum(sum[:0])
		}
	}
	return sum[:sec.keyBytes]
}

// Algorithm 4/5: compute U.
func (sec *stdSecHandler) computeU(fileEncryptionKey []byte) []byte {
	U := make([]byte, 32)
	if sec.R == 2 {
		c, _ := rc4.NewCipher(fileEncryptionKey)
		c.XORKeyStream(U, passwdPad)
		return U
	}

	h := md5.New()
	h.Write(passwdPad)
	h.Write(sec.ID)
	U = h.Sum(U[:0])
	c, _ := rc4.NewCipher(fileEncryptionKey)
	c.XORKeyStream(U, U)

	tmpKey := make([]byte, len(fileEncryptionKey))
	for i := byte(1); i <= 19; i++ {
		for j := range tmpKey {
			tmpKey[j] = fileEncryptionKey[j] ^ i
		}
		c, _ = rc4.NewCipher(tmpKey)
		c.XORKeyStream(U, U)
	}
	// The remaining 16 bytes are arbitrary padding.
	return append(U[:16], make([]byte, 16)...)
}

// Algorithm 6: authenticate the user password (R <= 4).
func (sec *stdSecHandler) authenticateUser(paddedUserPwd []byte) error {
	key := sec.computeFileEncryptionKey(paddedUserPwd)
	U := sec.computeU(key)
	n := 32
	if sec.R >= 3 {
		n = 16
	}
	if !bytes.Equal(U[:n], sec.U[:n]) {
		return &AuthenticationError{sec.ID}
	}
	sec.key = key
	return nil
}

// Algorithm 7: authenticate the owner password (R <= 4).
func (sec *stdSecHandler) authenticateOwner(paddedOwnerPwd []byte) error {
	key := sec.ownerKey(paddedOwnerPwd)

	buf := make([]byte, 32)
	copy(buf, sec.O)
	if sec.R == 2 {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(buf, buf)
	} else {
		tmpKey := make([]byte, len(key))
		for i := 19; i >= 0; i-- {
			for j := range tmpKey {
				tmpKey[j] = key[j] ^ byte(i)
			}
			c, _ := rc4.NewCipher(tmpKey)
			c.XORKeyStream(buf, buf)
		}
	}

	err := sec.authenticateUser(buf)
	if err != nil {
		return err
	}
	sec.ownerAuthenticated = true
	return nil
}

// Algorithm 8: compute U and UE (R = 6).
func (sec *stdSecHandler) computeUAndUE(utf8UserPwd []byte) ([]byte, []byte, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, nil, err
	}

	U := make([]byte, 0, 48)
	U = append(U, slowHash(utf8UserPwd, salt[:8], nil)...)
	U = append(U, salt...)

	key := slowHash(utf8UserPwd, salt[8:], nil)
	c, _ := aes.NewCipher(key)
	cbc := cipher.NewCBCEncrypter(c, zero16)
	UE := make([]byte, 32)
	cbc.CryptBlocks(UE, sec.key)

	return U, UE, nil
}

// Algorithm 9: compute O and OE (R = 6).
func (sec *stdSecHandler) computeOAndOE(utf8OwnerPwd []byte) ([]byte, []byte, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, nil, err
	}

	O := make([]byte, 0, 48)
	O = append(O, slowHash(utf8OwnerPwd, salt[:8], sec.U)...)
	O = append(O, salt...)

	key := slowHash(utf8OwnerPwd, salt[8:], sec.U)
	c, _ := aes.NewCipher(key)
	cbc := cipher.NewCBCEncrypter(c, zero16)
	OE := make([]byte, 32)
	cbc.CryptBlocks(OE, sec.key)

	return O, OE, nil
}

// Algorithm 10: compute Perms (R = 6).
func (sec *stdSecHandler) computePerms(fileEncryptionKey []byte) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, sec.P)
	copy(buf[4:8], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	buf[8] = sec.emdCode()
	copy(buf[9:12], "adb")

	c, _ := aes.NewCipher(fileEncryptionKey)
	c.Encrypt(buf, buf)
	return buf
}

func (sec *stdSecHandler) emdCode() byte {
	if sec.unencryptedMetaData {
		return 'F'
	}
	return 'T'
}

// Algorithm 11: authenticate the user password (R = 6).
func (sec *stdSecHandler) authenticateUser6(utf8Passwd []byte) error {
	hash := slowHash(utf8Passwd, sec.U[32:40], nil)
	if !bytes.Equal(hash, sec.U[:32]) {
		return &AuthenticationError{sec.ID}
	}
	return sec.unlock6(slowHash(utf8Passwd, sec.U[40:48], nil), sec.UE)
}

// Algorithm 12: authenticate the owner password (R = 6).
func (sec *stdSecHandler) authenticateOwner6(utf8Passwd []byte) error {
	hash := slowHash(utf8Passwd, sec.O[32:40], sec.U)
	if !bytes.Equal(hash, sec.O[:32]) {
		return &AuthenticationError{sec.ID}
	}
	err := sec.unlock6(slowHash(utf8Passwd, sec.O[40:48], sec.U), sec.OE)
	if err != nil {
		return err
	}
	sec.ownerAuthenticated = true
	return nil
}

// unlock6 decrypts the file encryption key and checks it against Perms.
func (sec *stdSecHandler) unlock6(key, encrypted []byte) error {
	c, _ := aes.NewCipher(key)
	cbc := cipher.NewCBCDecrypter(c, zero16)
	fileKey := make([]byte, 32)
	cbc.CryptBlocks(fileKey, encrypted)

	buf := make([]byte, 16)
	c, _ = aes.NewCipher(fileKey)
	c.Decrypt(buf, sec.Perms)
	if string(buf[9:12]) != "adb" ||
		binary.LittleEndian.Uint32(buf[:4]) != sec.P ||
		buf[8] != sec.emdCode() {
		return &AuthenticationError{sec.ID}
	}

	sec.key = fileKey
	return nil
}

func utf8Passwd(passwd string) ([]byte, error) {
	prepped, err := stringprep.SASLprep.Prepare(passwd)
	if err != nil {
		return nil, errInvalidPassword
	}
	buf := []byte(prepped)
	if len(buf) > 127 {
		buf = buf[:127]
	}
	return buf, nil
}

// padPasswd returns the password, encoded in PDFDocEncoding and padded to
// 32 bytes.
func padPasswd(passwd string) ([]byte, error) {
	buf, ok := pdfDocEncode(passwd)
	if !ok {
		return nil, errInvalidPassword
	}

	padded := make([]byte, 32)
	n := copy(padded, buf)
	copy(padded[n:], passwdPad)
	return padded, nil
}

var passwdPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var zero16 = make([]byte, 16)

// Perm describes which operations are permitted when accessing the document
// with user access (but not owner access).  Viewing is always permitted.
//
// The permissions are reported as stored in the file; enforcing them is up
// to the caller.
type Perm int

const (
	// PermCopy allows to extract text and graphics.
	PermCopy Perm = 1 << iota

	// PermPrintDegraded allows printing in possibly degraded quality.
	PermPrintDegraded

	// PermPrint allows faithful printing.  This implies PermPrintDegraded.
	PermPrint

	// PermForms allows to fill in form fields.
	PermForms

	// PermAnnotate allows to add or modify annotations.  This implies
	// PermForms.
	PermAnnotate

	// PermAssemble allows to insert, rotate or delete pages.
	PermAssemble

	// PermModify allows to modify the document.  This implies PermAssemble.
	PermModify

	permNext

	// PermAll gives users all permissions.
	PermAll = permNext - 1
)

// canR2 checks whether the permissions can be represented by revision 2 of
// the standard security handler.
func (perm Perm) canR2() bool {
	if perm&PermPrint == 0 && perm&PermPrintDegraded != 0 {
		return false
	}
	if perm&PermAnnotate == 0 && perm&PermForms != 0 {
		return false
	}
	if perm&PermModify == 0 && perm&PermAssemble != 0 {
		return false
	}
	return true
}

func stdSecPToPerm(R int, P uint32) Perm {
	bit := func(n int) bool { return P&(1<<(n-1)) != 0 }

	perm := PermAll
	switch {
	case R == 2 && !bit(3):
		perm &^= PermPrint | PermPrintDegraded
	case R >= 3 && !bit(3) && !bit(12):
		perm &^= PermPrint | PermPrintDegraded
	case R >= 3 && !bit(12):
		perm &^= PermPrint
	}
	if !bit(4) {
		perm &^= PermModify
		if !bit(11) {
			perm &^= PermAssemble
		}
	}
	if !bit(5) {
		perm &^= PermCopy
	}
	if !bit(6) {
		perm &^= PermAnnotate
		if !bit(9) {
			perm &^= PermForms
		}
	}
	return perm
}

func stdSecPermToP(perm Perm) uint32 {
	forbidden := uint32(3)
	if perm&PermCopy == 0 {
		forbidden |= 1 << (5 - 1)
	}
	if perm&PermPrint == 0 {
		forbidden |= 1 << (12 - 1)
		if perm&PermPrintDegraded == 0 {
			forbidden |= 1 << (3 - 1)
		}
	}
	if perm&PermAnnotate == 0 {
		forbidden |= 1 << (6 - 1)
		if perm&PermForms == 0 {
			forbidden |= 1 << (9 - 1)
		}
	}
	if perm&PermAssemble == 0 {
		forbidden |= 1 << (11 - 1)
	}
	if perm&PermModify == 0 {
		forbidden |= 1 << (4 - 1)
	}
	return ^forbidden
}
