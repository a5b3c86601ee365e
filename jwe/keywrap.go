// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jwe

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"io"

	"github.com/dark-bio/jose-go/aesgcm"
	"github.com/dark-bio/jose-go/aeskw"
	"github.com/dark-bio/jose-go/header"
	"github.com/dark-bio/jose-go/internal/base64url"
	"github.com/dark-bio/jose-go/jwa"
	"github.com/dark-bio/jose-go/pbkdf2"
)

// Error types for key management failures
var (
	ErrInvalidKEK             = errors.New("jwe: key size does not match the key management algorithm")
	ErrUnexpectedEncryptedKey = errors.New("jwe: encrypted key must be empty for this algorithm")
)

// DirectKey uses a pre-shared content encryption key directly: nothing is
// wrapped and the encrypted key segment stays empty. The key size must match
// the content encryption algorithm in use.
type DirectKey struct {
	key []byte
}

// NewDirectKey creates a direct key manager over a shared key.
func NewDirectKey(key []byte) *DirectKey {
	return &DirectKey{key: key}
}

// Algorithm returns the key management algorithm identifier.
func (d *DirectKey) Algorithm() string {
	return jwa.Direct
}

// Algorithms returns the single algorithm the shared key is bound to.
func (d *DirectKey) Algorithms() []string {
	return []string{jwa.Direct}
}

// WrapKey discards the proposed key and returns the shared key with an empty
// encrypted key segment.
func (d *DirectKey) WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) ([]byte, []byte, error) {
	size, err := cekSize(enc)
	if err != nil {
		return nil, nil, err
	}
	if len(d.key) != size {
		return nil, nil, ErrInvalidCEK
	}
	return d.key, nil, nil
}

// UnwrapKey returns the shared key. A non-empty encrypted key segment is
// rejected rather than ignored.
func (d *DirectKey) UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error) {
	if len(encryptedKey) != 0 {
		return nil, ErrUnexpectedEncryptedKey
	}
	if len(d.key) != size {
		return nil, ErrInvalidCEK
	}
	return d.key, nil
}

// kwParams maps the A*KW algorithms to their key-encryption key size.
var kwParams = map[string]int{
	jwa.A128KW: 16,
	jwa.A192KW: 24,
	jwa.A256KW: 32,
}

func kwAlgorithms() []string {
	return []string{jwa.A128KW, jwa.A192KW, jwa.A256KW}
}

// AESKW wraps the content encryption key with AES Key Wrap under a static
// key-encryption key.
type AESKW struct {
	alg string
	kek []byte
}

// NewAESKW creates a key manager for an A*KW algorithm. The key size must
// match the algorithm.
func NewAESKW(alg string, kek []byte) (*AESKW, error) {
	size, ok := kwParams[alg]
	if !ok {
		return nil, jwa.Unsupported("algorithm", alg, kwAlgorithms())
	}
	if len(kek) != size {
		return nil, ErrInvalidKEK
	}
	return &AESKW{alg: alg, kek: kek}, nil
}

// Algorithm returns the key management algorithm identifier.
func (a *AESKW) Algorithm() string {
	return a.alg
}

// Algorithms returns the single algorithm the key is bound to.
func (a *AESKW) Algorithms() []string {
	return []string{a.alg}
}

// WrapKey wraps the proposed key.
func (a *AESKW) WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) ([]byte, []byte, error) {
	wrapped, err := aeskw.Wrap(a.kek, proposed)
	if err != nil {
		return nil, nil, err
	}
	return proposed, wrapped, nil
}

// UnwrapKey unwraps the encrypted key segment.
func (a *AESKW) UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error) {
	return aeskw.Unwrap(a.kek, encryptedKey)
}

// gcmkwParams maps the A*GCMKW algorithms to their key-encryption key size.
var gcmkwParams = map[string]int{
	jwa.A128GCMKW: 16,
	jwa.A192GCMKW: 24,
	jwa.A256GCMKW: 32,
}

func gcmkwAlgorithms() []string {
	return []string{jwa.A128GCMKW, jwa.A192GCMKW, jwa.A256GCMKW}
}

// AESGCMKW encrypts the content encryption key with AES-GCM under a static
// key-encryption key, carrying the fresh IV and the authentication tag in
// the "iv" and "tag" header parameters.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.7
type AESGCMKW struct {
	alg string
	kek []byte
}

// NewAESGCMKW creates a key manager for an A*GCMKW algorithm. The key size
// must match the algorithm.
func NewAESGCMKW(alg string, kek []byte) (*AESGCMKW, error) {
	size, ok := gcmkwParams[alg]
	if !ok {
		return nil, jwa.Unsupported("algorithm", alg, gcmkwAlgorithms())
	}
	if len(kek) != size {
		return nil, ErrInvalidKEK
	}
	return &AESGCMKW{alg: alg, kek: kek}, nil
}

// Algorithm returns the key management algorithm identifier.
func (a *AESGCMKW) Algorithm() string {
	return a.alg
}

// Algorithms returns the single algorithm the key is bound to.
func (a *AESGCMKW) Algorithms() []string {
	return []string{a.alg}
}

// WrapKey encrypts the proposed key under a fresh IV and records the IV and
// tag in the header.
func (a *AESGCMKW) WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) ([]byte, []byte, error) {
	iv, err := aesgcm.GenerateIV(random)
	if err != nil {
		return nil, nil, err
	}
	encryptedKey, tag, err := aesgcm.Encrypt(a.kek, iv, proposed, nil)
	if err != nil {
		return nil, nil, err
	}
	h.Set(header.InitializationVector, base64url.Encode(iv))
	h.Set(header.AuthenticationTag, base64url.Encode(tag))
	return proposed, encryptedKey, nil
}

// UnwrapKey decrypts the encrypted key segment with the IV and tag carried
// in the header.
func (a *AESGCMKW) UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error) {
	iv, err := h.BytesParameter(header.InitializationVector)
	if err != nil {
		return nil, err
	}
	tag, err := h.BytesParameter(header.AuthenticationTag)
	if err != nil {
		return nil, err
	}
	return aesgcm.Decrypt(a.kek, iv, encryptedKey, nil, tag)
}

// pbes2Params maps the PBES2 algorithms to the PBKDF2 hash and the size of
// the derived key-encryption key.
var pbes2Params = map[string]struct {
	hash   func() hash.Hash
	keyLen int
}{
	jwa.PBES2HS256A128KW: {sha256.New, 16},
	jwa.PBES2HS384A192KW: {sha512.New384, 24},
	jwa.PBES2HS512A256KW: {sha512.New, 32},
}

func pbes2Algorithms() []string {
	return []string{jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW}
}

// pbes2SaltSize is the size of the random salt input generated per
// encryption. RFC 7518 Section 4.8.1.1 requires at least 8 bytes.
const pbes2SaltSize = 16

// PBES2 derives the key-encryption key from a password with PBKDF2 and wraps
// the content encryption key with AES Key Wrap, carrying the salt input and
// iteration count in the "p2s" and "p2c" header parameters.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.8
type PBES2 struct {
	alg      string
	password []byte
	count    int
	hash     func() hash.Hash
	keyLen   int
}

// NewPBES2 creates a key manager for a PBES2 algorithm. The iteration count
// is the one used when encrypting; when decrypting, the count comes from the
// header. The minimum acceptable count is caller policy.
func NewPBES2(alg string, password []byte, count int) (*PBES2, error) {
	p, ok := pbes2Params[alg]
	if !ok {
		return nil, jwa.Unsupported("algorithm", alg, pbes2Algorithms())
	}
	if count < 1 {
		return nil, pbkdf2.ErrInvalidIteration
	}
	return &PBES2{alg: alg, password: password, count: count, hash: p.hash, keyLen: p.keyLen}, nil
}

// Algorithm returns the key management algorithm identifier.
func (p *PBES2) Algorithm() string {
	return p.alg
}

// Algorithms returns the single algorithm the password is bound to.
func (p *PBES2) Algorithms() []string {
	return []string{p.alg}
}

// WrapKey derives the key-encryption key from a fresh salt input, wraps the
// proposed key and records the salt input and count in the header.
func (p *PBES2) WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) ([]byte, []byte, error) {
	saltInput := make([]byte, pbes2SaltSize)
	if _, err := io.ReadFull(random, saltInput); err != nil {
		return nil, nil, err
	}
	kek, err := p.derive(saltInput, p.count)
	if err != nil {
		return nil, nil, err
	}
	wrapped, err := aeskw.Wrap(kek, proposed)
	if err != nil {
		return nil, nil, err
	}
	h.Set(header.PBES2SaltInput, base64url.Encode(saltInput))
	h.Set(header.PBES2Count, p.count)
	return proposed, wrapped, nil
}

// UnwrapKey re-derives the key-encryption key from the salt input and count
// carried in the header and unwraps the encrypted key segment.
func (p *PBES2) UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error) {
	saltInput, err := h.BytesParameter(header.PBES2SaltInput)
	if err != nil {
		return nil, err
	}
	count, err := h.IntParameter(header.PBES2Count)
	if err != nil {
		return nil, err
	}
	kek, err := p.derive(saltInput, count)
	if err != nil {
		return nil, err
	}
	return aeskw.Unwrap(kek, encryptedKey)
}

func (p *PBES2) derive(saltInput []byte, count int) ([]byte, error) {
	salt, err := pbkdf2.FormatSalt(p.alg, saltInput)
	if err != nil {
		return nil, err
	}
	return pbkdf2.Key(p.password, salt, count, p.keyLen, p.hash)
}
