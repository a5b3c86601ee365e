// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aad computes the additional authenticated data for JWE content
// encryption and its 64-bit length framing.
//
// https://datatracker.ietf.org/doc/html/rfc7516#section-5.1
package aad

import (
	"encoding/binary"
	"errors"
)

// maxLength is the largest AAD byte length whose bit count still fits in an
// unsigned 64-bit integer.
const maxLength = 1<<61 - 1

// ErrLengthOverflow is returned when the AAD is so large that its bit count
// would overflow 64 bits.
var ErrLengthOverflow = errors.New("aad: bit length overflows 64 bits")

// Compute returns the additional authenticated data for an encoded protected
// header (or any other pre-encoded Base64URL value, such as a JWE
// encrypted-key segment). The AAD is the ASCII byte representation of the
// encoded text, per RFC 7516 Section 5.1 step 14.
func Compute(encoded string) []byte {
	return []byte(encoded)
}

// ComputeLength returns the AL block: the number of bits in the AAD as a
// 64-bit big-endian integer, per RFC 7518 Section 5.2.2.1 step 3. An AAD
// whose bit count does not fit in 64 bits is an error, never a silent
// truncation.
func ComputeLength(data []byte) ([8]byte, error) {
	return encodeBitLength(uint64(len(data)))
}

func encodeBitLength(n uint64) ([8]byte, error) {
	var out [8]byte
	if n > maxLength {
		return out, ErrLengthOverflow
	}
	binary.BigEndian.PutUint64(out[:], n*8)
	return out, nil
}
