// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aescbc provides the AES_CBC_HMAC_SHA2 composite authenticated
// encryption algorithms A128CBC-HS256, A192CBC-HS384 and A256CBC-HS512.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.2
package aescbc

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/dark-bio/jose-go/aad"
	"github.com/dark-bio/jose-go/hmac"
	"github.com/dark-bio/jose-go/subtle"
)

// IVSize is the size of the initialization vector in bytes (the AES block).
const IVSize = 16

// Error types for encryption failures. ErrAuthentication deliberately does
// not distinguish a wrong key, tampered ciphertext, a tampered tag or bad
// padding.
var (
	ErrInvalidKeyLength = errors.New("aescbc: key must be 32, 48 or 64 bytes")
	ErrInvalidIVLength  = errors.New("aescbc: initialization vector must be 16 bytes")
	ErrInvalidPlaintext = errors.New("aescbc: ciphertext is not a whole number of blocks")
	ErrAuthentication   = errors.New("aescbc: message authentication failed")
)

// params maps the composite key size to the MAC hash. The key splits into a
// MAC half and an encryption half; the tag is the MAC truncated to the MAC
// key length.
var params = map[int]string{
	32: hmac.SHA256,
	48: hmac.SHA384,
	64: hmac.SHA512,
}

// GenerateIV reads a fresh 128-bit initialization vector from random.
func GenerateIV(random io.Reader) ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Encrypt encrypts plaintext under the composite key with the given IV,
// authenticating additionalData. The first half of the key is the MAC key,
// the second half the AES-CBC key. The returned tag is the HMAC over
// additionalData || IV || ciphertext || AL, truncated to half the hash.
func Encrypt(key, iv, plaintext, additionalData []byte) (ciphertext, tag []byte, err error) {
	hashName, ok := params[len(key)]
	if !ok {
		return nil, nil, ErrInvalidKeyLength
	}
	if len(iv) != IVSize {
		return nil, nil, ErrInvalidIVLength
	}
	macKey, encKey := key[:len(key)/2], key[len(key)/2:]

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, err
	}
	padded := pad(plaintext)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	tag, err = computeTag(hashName, macKey, iv, ciphertext, additionalData)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, tag, nil
}

// Decrypt authenticates the ciphertext, additionalData and tag and returns
// the plaintext. The tag is verified in constant time before any decryption
// happens; any failure reports the single generic ErrAuthentication.
func Decrypt(key, iv, ciphertext, additionalData, tag []byte) ([]byte, error) {
	hashName, ok := params[len(key)]
	if !ok {
		return nil, ErrInvalidKeyLength
	}
	if len(iv) != IVSize {
		return nil, ErrInvalidIVLength
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidPlaintext
	}
	macKey, encKey := key[:len(key)/2], key[len(key)/2:]

	want, err := computeTag(hashName, macKey, iv, ciphertext, additionalData)
	if err != nil {
		return nil, err
	}
	if !subtle.AreEqual(tag, want) {
		return nil, ErrAuthentication
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, ok = unpad(plaintext)
	if !ok {
		// Padding cannot be malformed once the tag verified; report the
		// same generic failure regardless.
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func computeTag(hashName string, macKey, iv, ciphertext, additionalData []byte) ([]byte, error) {
	al, err := aad.ComputeLength(additionalData)
	if err != nil {
		return nil, err
	}
	msg := make([]byte, 0, len(additionalData)+len(iv)+len(ciphertext)+8)
	msg = append(msg, additionalData...)
	msg = append(msg, iv...)
	msg = append(msg, ciphertext...)
	msg = append(msg, al[:]...)

	mac, err := hmac.Compute(hashName, macKey, msg)
	if err != nil {
		return nil, fmt.Errorf("aescbc: %w", err)
	}
	return mac[:len(macKey)], nil
}

// pad applies PKCS#7 padding per RFC 7518 Section 5.2.2.1 step 2.
func pad(plaintext []byte) []byte {
	n := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+n)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(padded []byte) ([]byte, bool) {
	n := int(padded[len(padded)-1])
	if n == 0 || n > aes.BlockSize || n > len(padded) {
		return nil, false
	}
	for _, b := range padded[len(padded)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return padded[:len(padded)-n], true
}
