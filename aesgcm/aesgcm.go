// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aesgcm provides AES-GCM authenticated encryption for the A128GCM,
// A192GCM and A256GCM content encryption algorithms and the AES-GCM key
// wrapping modes.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.3
package aesgcm

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"io"
)

const (
	// IVSize is the size of the initialization vector in bytes (96 bits).
	IVSize = 12

	// TagSize is the size of the authentication tag in bytes (128 bits).
	TagSize = 16
)

// Error types for encryption failures. ErrAuthentication deliberately does
// not distinguish a wrong key, a wrong IV, tampered ciphertext or a
// tampered tag.
var (
	ErrInvalidKeyLength = errors.New("aesgcm: key must be 16, 24 or 32 bytes")
	ErrInvalidIVLength  = errors.New("aesgcm: initialization vector must be 12 bytes")
	ErrInvalidTagLength = errors.New("aesgcm: authentication tag must be 16 bytes")
	ErrAuthentication   = errors.New("aesgcm: message authentication failed")
)

// GenerateIV reads a fresh 96-bit initialization vector from random. A new
// IV must be generated for every encryption under the same key.
func GenerateIV(random io.Reader) ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Encrypt encrypts plaintext under key with the given IV, authenticating
// aad. It returns the ciphertext and the 128-bit authentication tag
// separately, matching the JWE serialization layout.
func Encrypt(key, iv, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	aead, err := newAEAD(key, iv)
	if err != nil {
		return nil, nil, err
	}
	sealed := aead.Seal(nil, iv, plaintext, aad)
	split := len(sealed) - TagSize
	return sealed[:split], sealed[split:], nil
}

// Decrypt authenticates the ciphertext, aad and tag under key and returns
// the plaintext. No plaintext bytes are released unless the tag verifies;
// any failure reports the single generic ErrAuthentication.
func Decrypt(key, iv, ciphertext, aad, tag []byte) ([]byte, error) {
	if len(tag) != TagSize {
		return nil, ErrInvalidTagLength
	}
	aead, err := newAEAD(key, iv)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func newAEAD(key, iv []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKeyLength
	}
	if len(iv) != IVSize {
		return nil, ErrInvalidIVLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
