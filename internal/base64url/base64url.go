// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package base64url provides strict unpadded Base64URL encoding and decoding.
package base64url

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidCharacter is returned when the input contains padding,
// whitespace, or any other character outside the Base64URL alphabet.
var ErrInvalidCharacter = errors.New("base64url: invalid character")

// Encode encodes data as unpadded Base64URL text.
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode decodes unpadded Base64URL text using strict decoding. Padding
// characters, whitespace, and non-canonical trailing bits are rejected.
func Decode(s string) ([]byte, error) {
	if strings.ContainsAny(s, "=\r\n \t") {
		return nil, ErrInvalidCharacter
	}
	out, err := base64.RawURLEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCharacter
	}
	return out, nil
}
