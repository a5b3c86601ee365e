// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jwe provides the JSON Web Encryption object and its state machine,
// together with the key management algorithms that establish the content
// encryption key.
//
// https://datatracker.ietf.org/doc/html/rfc7516
package jwe

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dark-bio/jose-go/aad"
	"github.com/dark-bio/jose-go/aescbc"
	"github.com/dark-bio/jose-go/aesgcm"
	"github.com/dark-bio/jose-go/header"
	"github.com/dark-bio/jose-go/internal/base64url"
	"github.com/dark-bio/jose-go/jwa"
)

// State is the lifecycle position of an encryption object. The lattice is
// monotonic: no transition ever moves an object backwards.
type State int

// Object lifecycle states
const (
	StateUnprotected State = iota
	StateEncrypted
	StateDecrypted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnprotected:
		return "UNPROTECTED"
	case StateEncrypted:
		return "ENCRYPTED"
	case StateDecrypted:
		return "DECRYPTED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Error types for encryption object failures
var (
	ErrInvalidState   = errors.New("jwe: operation not permitted in current state")
	ErrCriticalHeader = errors.New("jwe: unrecognized critical header parameter")
	ErrMalformed      = errors.New("jwe: malformed compact serialization")
	ErrInvalidCEK     = errors.New("jwe: content key size does not match the encryption algorithm")
)

// KeyEncrypter establishes and protects the content encryption key on the
// sender side. One value serves one key management algorithm over one key.
type KeyEncrypter interface {
	// Algorithm returns the JWE key management algorithm identifier.
	Algorithm() string

	// WrapKey protects the proposed content encryption key, returning the
	// key actually used and the encrypted key segment. Direct and key
	// agreement modes discard the proposal and return their own key with an
	// empty segment. The header is extended with any key management
	// parameters before it is integrity protected.
	WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) (cek, encryptedKey []byte, err error)
}

// KeyDecrypter recovers the content encryption key on the receiver side.
type KeyDecrypter interface {
	// Algorithms returns the key management algorithm identifiers this
	// decrypter accepts, used for pre-flight negotiation before any
	// cryptographic work.
	Algorithms() []string

	// UnwrapKey recovers the content encryption key of size bytes from the
	// encrypted key segment and the key management header parameters.
	UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error)
}

// encParams maps the content encryption algorithms to their composite key
// size and AEAD family.
var encParams = map[string]struct {
	keySize int
	gcm     bool
}{
	jwa.A128CBCHS256: {32, false},
	jwa.A192CBCHS384: {48, false},
	jwa.A256CBCHS512: {64, false},
	jwa.A128GCM:      {16, true},
	jwa.A192GCM:      {24, true},
	jwa.A256GCM:      {32, true},
}

// cekSize returns the content encryption key size in bytes for a content
// encryption algorithm.
func cekSize(enc string) (int, error) {
	p, ok := encParams[enc]
	if !ok {
		return 0, jwa.Unsupported("encryption", enc, jwa.EncryptionAlgorithms())
	}
	return p.keySize, nil
}

// Object is a JWE protocol object. It is built unprotected from a header and
// plaintext, moves to encrypted by exactly one Encrypt call, and to decrypted
// by one successful Decrypt call. An Object is not safe for concurrent state
// transitions; callers must serialize access per instance.
type Object struct {
	state        State
	header       *header.Header
	plaintext    []byte
	encryptedKey []byte
	iv           []byte
	ciphertext   []byte
	tag          []byte
	critChecker  *header.CritChecker
}

// New creates an unprotected object from a header and plaintext. The header
// must not be mutated after it is attached; Encrypt extends it with key
// management parameters before protecting it.
func New(h *header.Header, plaintext []byte) *Object {
	return &Object{
		state:       StateUnprotected,
		header:      h,
		plaintext:   plaintext,
		critChecker: header.NewCritChecker(),
	}
}

// Parse reconstructs an object from its compact serialization. The presence
// of the ciphertext segments places the object directly in the encrypted
// state. The encrypted key segment may be empty for direct and key agreement
// algorithms.
func Parse(compact string) (*Object, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 segments, got %d", ErrMalformed, len(parts))
	}
	h, err := header.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	segments := make([][]byte, 4)
	for i, name := range []string{"encrypted key", "initialization vector", "ciphertext", "tag"} {
		segments[i], err = base64url.Decode(parts[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
		}
	}
	return &Object{
		state:        StateEncrypted,
		header:       h,
		encryptedKey: segments[0],
		iv:           segments[1],
		ciphertext:   segments[2],
		tag:          segments[3],
		critChecker:  header.NewCritChecker(),
	}, nil
}

// State returns the current lifecycle state.
func (o *Object) State() State {
	return o.state
}

// Header returns the attached header.
func (o *Object) Header() *header.Header {
	return o.header
}

// Plaintext returns the plaintext bytes: the original input on a built
// object, the recovered bytes after Decrypt, nil on a parsed object that has
// not been decrypted.
func (o *Object) Plaintext() []byte {
	return o.plaintext
}

// SetCriticalChecker replaces the critical-parameter checker consulted
// before decryption. The default checker whitelists nothing.
func (o *Object) SetCriticalChecker(c *header.CritChecker) {
	o.critChecker = c
}

// Encrypt establishes a content encryption key through the encrypter,
// encrypts the plaintext and moves the object to the encrypted state.
// Encrypting is one-shot: a second call, or a call on a parsed object, is an
// invalid-state error.
func (o *Object) Encrypt(encrypter KeyEncrypter, random io.Reader) error {
	if o.state != StateUnprotected {
		return fmt.Errorf("%w: encrypt from %s", ErrInvalidState, o.state)
	}
	alg, err := o.header.GetAlgorithm()
	if err != nil {
		return err
	}
	if alg != encrypter.Algorithm() {
		return jwa.Unsupported("algorithm", alg, []string{encrypter.Algorithm()})
	}
	enc, err := o.header.GetEncryption()
	if err != nil {
		return err
	}
	size, err := cekSize(enc)
	if err != nil {
		return err
	}
	if err := rejectCompression(o.header); err != nil {
		return err
	}

	proposed := make([]byte, size)
	if _, err := io.ReadFull(random, proposed); err != nil {
		return err
	}
	cek, encryptedKey, err := encrypter.WrapKey(random, proposed, enc, o.header)
	if err != nil {
		return err
	}
	if len(cek) != size {
		return ErrInvalidCEK
	}

	iv, err := contentIV(enc, random)
	if err != nil {
		return err
	}
	encodedHeader, err := o.header.Encoded()
	if err != nil {
		return err
	}
	ciphertext, tag, err := contentEncrypt(enc, cek, iv, o.plaintext, aad.Compute(encodedHeader))
	if err != nil {
		return fmt.Errorf("jwe: encrypt %s: %w", enc, err)
	}

	o.encryptedKey = encryptedKey
	o.iv = iv
	o.ciphertext = ciphertext
	o.tag = tag
	o.state = StateEncrypted
	return nil
}

// Decrypt recovers the content encryption key through the decrypter, decrypts
// the ciphertext and promotes the object to the decrypted state on success.
// On any failure the object simply stays encrypted and the error reports it.
//
// The critical-header policy and the algorithm negotiation both run before
// any key material is touched.
func (o *Object) Decrypt(decrypter KeyDecrypter) ([]byte, error) {
	if o.state != StateEncrypted {
		return nil, fmt.Errorf("%w: decrypt from %s", ErrInvalidState, o.state)
	}
	if !o.critChecker.HeaderPasses(o.header) {
		return nil, ErrCriticalHeader
	}
	alg, err := o.header.GetAlgorithm()
	if err != nil {
		return nil, err
	}
	supported := decrypter.Algorithms()
	if !contains(supported, alg) {
		return nil, jwa.Unsupported("algorithm", alg, supported)
	}
	enc, err := o.header.GetEncryption()
	if err != nil {
		return nil, err
	}
	size, err := cekSize(enc)
	if err != nil {
		return nil, err
	}
	if err := rejectCompression(o.header); err != nil {
		return nil, err
	}

	cek, err := decrypter.UnwrapKey(o.encryptedKey, enc, size, o.header)
	if err != nil {
		return nil, fmt.Errorf("jwe: unwrap %s: %w", alg, err)
	}
	if len(cek) != size {
		return nil, ErrInvalidCEK
	}

	encodedHeader, err := o.header.Encoded()
	if err != nil {
		return nil, err
	}
	plaintext, err := contentDecrypt(enc, cek, o.iv, o.ciphertext, aad.Compute(encodedHeader), o.tag)
	if err != nil {
		return nil, fmt.Errorf("jwe: decrypt %s: %w", enc, err)
	}

	o.plaintext = plaintext
	o.state = StateDecrypted
	return plaintext, nil
}

// Compact returns the compact serialization
// header.encryptedKey.iv.ciphertext.tag. The object must be encrypted.
func (o *Object) Compact() (string, error) {
	if o.state == StateUnprotected {
		return "", fmt.Errorf("%w: serialize from %s", ErrInvalidState, o.state)
	}
	encodedHeader, err := o.header.Encoded()
	if err != nil {
		return "", err
	}
	return encodedHeader + "." +
		base64url.Encode(o.encryptedKey) + "." +
		base64url.Encode(o.iv) + "." +
		base64url.Encode(o.ciphertext) + "." +
		base64url.Encode(o.tag), nil
}

// rejectCompression refuses any "zip" declaration. Inflating
// attacker-controlled data before authentication is an amplification
// hazard, so compression is not negotiated at all.
func rejectCompression(h *header.Header) error {
	v, ok := h.Get(header.Compression)
	if !ok {
		return nil
	}
	name, _ := v.(string)
	return jwa.Unsupported("compression", name, nil)
}

func contentIV(enc string, random io.Reader) ([]byte, error) {
	if encParams[enc].gcm {
		return aesgcm.GenerateIV(random)
	}
	return aescbc.GenerateIV(random)
}

func contentEncrypt(enc string, cek, iv, plaintext, additionalData []byte) (ciphertext, tag []byte, err error) {
	if encParams[enc].gcm {
		return aesgcm.Encrypt(cek, iv, plaintext, additionalData)
	}
	return aescbc.Encrypt(cek, iv, plaintext, additionalData)
}

func contentDecrypt(enc string, cek, iv, ciphertext, additionalData, tag []byte) ([]byte, error) {
	if encParams[enc].gcm {
		return aesgcm.Decrypt(cek, iv, ciphertext, additionalData, tag)
	}
	return aescbc.Decrypt(cek, iv, ciphertext, additionalData, tag)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
