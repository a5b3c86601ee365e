// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hmac provides keyed-hash message authentication for the CBC+HMAC
// content encryption modes and the HS signature family.
//
// https://datatracker.ietf.org/doc/html/rfc2104
package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
)

// Hash algorithm names accepted by Compute and New.
const (
	SHA256 = "SHA-256"
	SHA384 = "SHA-384"
	SHA512 = "SHA-512"
)

// ErrUnavailableHash is returned when the named hash algorithm is not one
// this package provides.
var ErrUnavailableHash = errors.New("hmac: unavailable hash algorithm")

var hashes = map[string]func() hash.Hash{
	SHA256: sha256.New,
	SHA384: sha512.New384,
	SHA512: sha512.New,
}

// New returns the hash constructor for the named algorithm, for callers that
// feed an HMAC incrementally or hand the constructor to another derivation
// primitive.
func New(name string) (func() hash.Hash, error) {
	h, ok := hashes[name]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnavailableHash, name)
	}
	return h, nil
}

// Compute returns the HMAC of message under key using the named hash
// algorithm. The output is deterministic: the same key and message always
// produce the same MAC.
func Compute(name string, key, message []byte) ([]byte, error) {
	h, ok := hashes[name]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnavailableHash, name)
	}
	mac := hmac.New(h, key)
	mac.Write(message)
	return mac.Sum(nil), nil
}
