// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pbkdf2 provides password-based key derivation for the PBES2 key
// encryption algorithms, including their algorithm-bound salt framing.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.8
package pbkdf2

import (
	"errors"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// Error types for derivation failures
var (
	ErrEmptySalt        = errors.New("pbkdf2: empty salt input")
	ErrInvalidIteration = errors.New("pbkdf2: iteration count must be positive")
)

// FormatSalt builds the PBES2 salt from the algorithm identifier and the
// random salt input: UTF8(alg) || 0x00 || saltInput. The single zero byte is
// a mandatory separator defined by RFC 7518 Section 4.8.1.1; omitting or
// duplicating it breaks interoperability.
func FormatSalt(alg string, saltInput []byte) ([]byte, error) {
	if len(saltInput) == 0 {
		return nil, ErrEmptySalt
	}
	out := make([]byte, 0, len(alg)+1+len(saltInput))
	out = append(out, alg...)
	out = append(out, 0x00)
	out = append(out, saltInput...)
	return out, nil
}

// Key derives keyLen bytes from the password and formatted salt over iter
// rounds of the pseudorandom function built from h. The minimum acceptable
// iteration count is caller policy; only a non-positive count is rejected
// here.
func Key(password, salt []byte, iter, keyLen int, h func() hash.Hash) ([]byte, error) {
	if iter < 1 {
		return nil, ErrInvalidIteration
	}
	return pbkdf2.Key(password, salt, iter, keyLen, h), nil
}
