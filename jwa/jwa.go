// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jwa provides the JSON Web Algorithm identifiers, the algorithm
// support diagnostics, and the signer/verifier capability used by JWS.
//
// https://datatracker.ietf.org/doc/html/rfc7518
// https://datatracker.ietf.org/doc/html/rfc8037
package jwa

import "strings"

// Digital signature and MAC algorithms for JWS.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.1
const (
	HS256 = "HS256"
	HS384 = "HS384"
	HS512 = "HS512"
	RS256 = "RS256"
	RS384 = "RS384"
	RS512 = "RS512"
	ES256 = "ES256"
	ES384 = "ES384"
	ES512 = "ES512"
	PS256 = "PS256"
	PS384 = "PS384"
	PS512 = "PS512"
	EdDSA = "EdDSA"
)

// Key management algorithms for JWE.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.1
const (
	Direct           = "dir"
	A128KW           = "A128KW"
	A192KW           = "A192KW"
	A256KW           = "A256KW"
	A128GCMKW        = "A128GCMKW"
	A192GCMKW        = "A192GCMKW"
	A256GCMKW        = "A256GCMKW"
	PBES2HS256A128KW = "PBES2-HS256+A128KW"
	PBES2HS384A192KW = "PBES2-HS384+A192KW"
	PBES2HS512A256KW = "PBES2-HS512+A256KW"
	ECDHES           = "ECDH-ES"
	ECDHESA128KW     = "ECDH-ES+A128KW"
	ECDHESA192KW     = "ECDH-ES+A192KW"
	ECDHESA256KW     = "ECDH-ES+A256KW"
	RSAOAEP          = "RSA-OAEP"
	RSAOAEP256       = "RSA-OAEP-256"
)

// Content encryption algorithms for JWE.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.1
const (
	A128CBCHS256 = "A128CBC-HS256"
	A192CBCHS384 = "A192CBC-HS384"
	A256CBCHS512 = "A256CBC-HS512"
	A128GCM      = "A128GCM"
	A192GCM      = "A192GCM"
	A256GCM      = "A256GCM"
)

// SignatureAlgorithms returns the JWS algorithms this engine implements, in
// registry order.
func SignatureAlgorithms() []string {
	return []string{
		HS256, HS384, HS512,
		RS256, RS384, RS512,
		ES256, ES384, ES512,
		PS256, PS384, PS512,
		EdDSA,
	}
}

// KeyAlgorithms returns the JWE key management algorithms this engine
// implements, in registry order.
func KeyAlgorithms() []string {
	return []string{
		Direct,
		A128KW, A192KW, A256KW,
		A128GCMKW, A192GCMKW, A256GCMKW,
		PBES2HS256A128KW, PBES2HS384A192KW, PBES2HS512A256KW,
		ECDHES, ECDHESA128KW, ECDHESA192KW, ECDHESA256KW,
		RSAOAEP, RSAOAEP256,
	}
}

// EncryptionAlgorithms returns the JWE content encryption algorithms this
// engine implements, in registry order.
func EncryptionAlgorithms() []string {
	return []string{
		A128CBCHS256, A192CBCHS384, A256CBCHS512,
		A128GCM, A192GCM, A256GCM,
	}
}

// SupportMessage formats the diagnostic for an unsupported algorithm,
// encryption method or curve. The phrasing is part of the error reporting
// contract: "Unsupported <kind> <name>, must be <a>, <b> or <c>", with a
// single alternative listed without conjunction.
func SupportMessage(kind, name string, supported []string) string {
	msg := "Unsupported " + kind + " " + name
	switch len(supported) {
	case 0:
		return msg
	case 1:
		return msg + ", must be " + supported[0]
	}
	return msg + ", must be " +
		strings.Join(supported[:len(supported)-1], ", ") +
		" or " + supported[len(supported)-1]
}

// UnsupportedError reports an algorithm identifier the engine does not
// implement, along with the acceptable alternatives. It is returned by
// every negotiation check; the identifier is never silently substituted.
type UnsupportedError struct {
	Kind      string
	Name      string
	Supported []string
}

func (e *UnsupportedError) Error() string {
	return SupportMessage(e.Kind, e.Name, e.Supported)
}

// Unsupported builds an UnsupportedError for the given kind and name.
func Unsupported(kind, name string, supported []string) *UnsupportedError {
	return &UnsupportedError{Kind: kind, Name: name, Supported: supported}
}
