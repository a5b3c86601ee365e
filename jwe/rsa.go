// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jwe

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"hash"
	"io"

	"github.com/dark-bio/jose-go/header"
	"github.com/dark-bio/jose-go/jwa"
)

// ErrKeyDecryption is the single generic failure for RSA key decryption; it
// deliberately does not distinguish a wrong key from corrupted input.
var ErrKeyDecryption = errors.New("jwe: encrypted key decryption failed")

// oaepParams maps the RSA-OAEP algorithms to their mask generation hash.
// RSA-OAEP is bound to SHA-1 by RFC 7518 Section 4.3.
var oaepParams = map[string]func() hash.Hash{
	jwa.RSAOAEP:    sha1.New,
	jwa.RSAOAEP256: sha256.New,
}

func oaepAlgorithms() []string {
	return []string{jwa.RSAOAEP, jwa.RSAOAEP256}
}

// minRSABits is the smallest RSA modulus RFC 7518 Section 4.2 permits.
const minRSABits = 2048

// RSAEncrypter encrypts the content encryption key with RSAES-OAEP under the
// recipient's public key.
type RSAEncrypter struct {
	alg  string
	hash func() hash.Hash
	key  *rsa.PublicKey
}

// NewRSAEncrypter creates an encrypter for an RSA-OAEP algorithm.
func NewRSAEncrypter(alg string, key *rsa.PublicKey) (*RSAEncrypter, error) {
	h, ok := oaepParams[alg]
	if !ok {
		return nil, jwa.Unsupported("algorithm", alg, oaepAlgorithms())
	}
	if key.N.BitLen() < minRSABits {
		return nil, jwa.ErrKeyTooSmall
	}
	return &RSAEncrypter{alg: alg, hash: h, key: key}, nil
}

// Algorithm returns the key management algorithm identifier.
func (e *RSAEncrypter) Algorithm() string {
	return e.alg
}

// WrapKey encrypts the proposed key.
func (e *RSAEncrypter) WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) ([]byte, []byte, error) {
	encryptedKey, err := rsa.EncryptOAEP(e.hash(), random, e.key, proposed, nil)
	if err != nil {
		return nil, nil, err
	}
	return proposed, encryptedKey, nil
}

// RSADecrypter decrypts the content encryption key with RSAES-OAEP under the
// recipient's private key.
type RSADecrypter struct {
	alg  string
	hash func() hash.Hash
	key  *rsa.PrivateKey
}

// NewRSADecrypter creates a decrypter for an RSA-OAEP algorithm.
func NewRSADecrypter(alg string, key *rsa.PrivateKey) (*RSADecrypter, error) {
	h, ok := oaepParams[alg]
	if !ok {
		return nil, jwa.Unsupported("algorithm", alg, oaepAlgorithms())
	}
	if key.N.BitLen() < minRSABits {
		return nil, jwa.ErrKeyTooSmall
	}
	return &RSADecrypter{alg: alg, hash: h, key: key}, nil
}

// Algorithms returns the single algorithm the key is bound to.
func (d *RSADecrypter) Algorithms() []string {
	return []string{d.alg}
}

// UnwrapKey decrypts the encrypted key segment. Any failure reports the
// single generic ErrKeyDecryption.
func (d *RSADecrypter) UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error) {
	cek, err := rsa.DecryptOAEP(d.hash(), nil, d.key, encryptedKey, nil)
	if err != nil {
		return nil, ErrKeyDecryption
	}
	return cek, nil
}
