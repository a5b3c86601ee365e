// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package concatkdf provides the single-step concatenation key derivation
// function used by the ECDH-ES key agreement algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#appendix-C
// NIST SP 800-56A Section 5.8.1
package concatkdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
)

// Hash algorithm names accepted by New.
const (
	SHA256 = "SHA-256"
	SHA384 = "SHA-384"
	SHA512 = "SHA-512"
)

// Error types for key derivation failures
var (
	ErrUnavailableHash  = errors.New("concatkdf: unavailable hash algorithm")
	ErrInvalidKeyLength = errors.New("concatkdf: key bit length must be a positive multiple of 8")
)

// KDF derives keys with a hash algorithm fixed at construction.
type KDF struct {
	name    string
	newHash func() hash.Hash
	bits    int
}

var hashes = map[string]struct {
	ctor func() hash.Hash
	bits int
}{
	SHA256: {sha256.New, 256},
	SHA384: {sha512.New384, 384},
	SHA512: {sha512.New, 512},
}

// New creates a KDF using the named hash algorithm.
func New(name string) (*KDF, error) {
	h, ok := hashes[name]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnavailableHash, name)
	}
	return &KDF{name: name, newHash: h.ctor, bits: h.bits}, nil
}

// Hash returns the name of the hash algorithm the KDF was built with.
func (k *KDF) Hash() string {
	return k.name
}

// DeriveKey derives keyBits bits of key material from the shared secret z
// and the composed OtherInfo. Each digest cycle hashes a 4-byte big-endian
// counter starting at one, followed by z, followed by otherInfo; cycle
// outputs are concatenated and truncated to the requested length.
func (k *KDF) DeriveKey(z []byte, keyBits int, otherInfo []byte) ([]byte, error) {
	if keyBits <= 0 || keyBits%8 != 0 {
		return nil, ErrInvalidKeyLength
	}
	cycles := DigestCycles(k.bits, keyBits)
	out := make([]byte, 0, cycles*k.bits/8)
	var counter [4]byte
	for i := 1; i <= cycles; i++ {
		binary.BigEndian.PutUint32(counter[:], uint32(i))
		h := k.newHash()
		h.Write(counter[:])
		h.Write(z)
		h.Write(otherInfo)
		out = h.Sum(out)
	}
	return out[:keyBits/8], nil
}

// DigestCycles returns the number of digest cycles needed to produce keyBits
// bits from a digest of digestBits bits. An exact multiple needs no extra
// cycle: 256/256 is one cycle, 256/384 is two.
func DigestCycles(digestBits, keyBits int) int {
	return (keyBits + digestBits - 1) / digestBits
}

// ComposeOtherInfo concatenates pre-encoded OtherInfo fields in call order.
// For interoperability the caller must pass AlgorithmID, PartyUInfo,
// PartyVInfo, SuppPubInfo and SuppPrivInfo in exactly that order.
func ComposeOtherInfo(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// EncodeString encodes a string field as a 4-byte big-endian length of its
// UTF-8 encoding followed by the UTF-8 bytes.
func EncodeString(s string) []byte {
	return EncodeWithLength([]byte(s))
}

// EncodeInt encodes an integer field as 4 big-endian bytes.
func EncodeInt(n int) []byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], uint32(n))
	return out[:]
}

// EncodeNoData encodes an absent field as zero bytes.
func EncodeNoData() []byte {
	return []byte{}
}

// EncodeWithLength encodes raw bytes as a 4-byte big-endian length followed
// by the bytes. Base64URL-valued header fields are length-prefixed over
// their decoded raw bytes, not the encoded text.
func EncodeWithLength(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out[:4], uint32(len(data)))
	copy(out[4:], data)
	return out
}
