// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aeskw provides AES Key Wrap for the A128KW, A192KW and A256KW key
// encryption algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc3394
package aeskw

import (
	"crypto/aes"
	"encoding/binary"
	"errors"
)

// Error types for wrapping failures. ErrIntegrity deliberately does not
// distinguish a wrong key from corrupted ciphertext.
var (
	ErrInvalidKEKLength = errors.New("aeskw: key encryption key must be 16, 24 or 32 bytes")
	ErrInvalidCEKLength = errors.New("aeskw: key data must be a multiple of 8 bytes and at least 16")
	ErrInvalidWrapped   = errors.New("aeskw: wrapped key must be a multiple of 8 bytes and at least 24")
	ErrIntegrity        = errors.New("aeskw: integrity check failed")
)

// initialValue is the fixed 64-bit integrity check value of RFC 3394
// Section 2.2.3.1.
var initialValue = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// Wrap wraps cek under kek. Wrapping is deterministic: there is no IV or
// nonce, and the output is always len(cek)+8 bytes.
func Wrap(kek, cek []byte) ([]byte, error) {
	if err := checkKEK(kek); err != nil {
		return nil, err
	}
	if len(cek) < 16 || len(cek)%8 != 0 {
		return nil, ErrInvalidCEKLength
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(cek) / 8
	a := initialValue
	r := make([]byte, len(cek))
	copy(r, cek)

	var b [16]byte
	for j := 0; j < 6; j++ {
		for i := 0; i < n; i++ {
			copy(b[0:8], a[:])
			copy(b[8:16], r[i*8:])
			block.Encrypt(b[:], b[:])
			t := uint64(n*j + i + 1)
			binary.BigEndian.PutUint64(a[:], binary.BigEndian.Uint64(b[0:8])^t)
			copy(r[i*8:], b[8:16])
		}
	}

	out := make([]byte, 0, 8+len(cek))
	out = append(out, a[:]...)
	out = append(out, r...)
	return out, nil
}

// Unwrap unwraps a wrapped key under kek and returns the key data. A failed
// integrity check reports the single generic ErrIntegrity, whether the key
// was wrong or the ciphertext corrupted.
func Unwrap(kek, wrapped []byte) ([]byte, error) {
	if err := checkKEK(kek); err != nil {
		return nil, err
	}
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, ErrInvalidWrapped
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[0:8])
	r := make([]byte, n*8)
	copy(r, wrapped[8:])

	var b [16]byte
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			t := uint64(n*j + i + 1)
			binary.BigEndian.PutUint64(b[0:8], binary.BigEndian.Uint64(a[:])^t)
			copy(b[8:16], r[i*8:])
			block.Decrypt(b[:], b[:])
			copy(a[:], b[0:8])
			copy(r[i*8:], b[8:16])
		}
	}

	if a != initialValue {
		return nil, ErrIntegrity
	}
	return r, nil
}

func checkKEK(kek []byte) error {
	switch len(kek) {
	case 16, 24, 32:
		return nil
	}
	return ErrInvalidKEKLength
}
