// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jwa

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"errors"
	"math/big"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/sign/ed448"

	"github.com/dark-bio/jose-go/hmac"
	"github.com/dark-bio/jose-go/subtle"
)

// Error types for signing and verification failures
var (
	ErrSignatureInvalid = errors.New("jwa: signature verification failed")
	ErrKeyTooSmall      = errors.New("jwa: key is smaller than the algorithm requires")
	ErrInvalidPublicKey = errors.New("jwa: invalid public key")
)

// Signer produces a signature (or MAC) over the JWS signing input using one
// fixed algorithm.
type Signer interface {
	// Algorithm returns the JWS algorithm identifier the signer produces.
	Algorithm() string

	// Sign computes the signature over data.
	Sign(data []byte) ([]byte, error)
}

// Verifier checks a signature over the JWS signing input.
type Verifier interface {
	// Algorithms returns the JWS algorithm identifiers this verifier
	// accepts, used for pre-flight negotiation before any cryptographic
	// work.
	Algorithms() []string

	// Verify checks the signature over data, returning ErrSignatureInvalid
	// on mismatch.
	Verify(data, signature []byte) error
}

// hsParams maps the HS algorithms to their hash and minimum key size.
// RFC 7518 Section 3.2 requires a key at least as large as the hash output.
var hsParams = map[string]struct {
	hash   string
	minKey int
}{
	HS256: {hmac.SHA256, 32},
	HS384: {hmac.SHA384, 48},
	HS512: {hmac.SHA512, 64},
}

// HMACSigner computes HS-family MACs. It doubles as the verification side:
// HMAC is symmetric, so verification recomputes the MAC and compares in
// constant time.
type HMACSigner struct {
	alg  string
	hash string
	key  []byte
}

// NewHMACSigner creates a signer for an HS algorithm over a shared key.
func NewHMACSigner(alg string, key []byte) (*HMACSigner, error) {
	p, ok := hsParams[alg]
	if !ok {
		return nil, Unsupported("algorithm", alg, []string{HS256, HS384, HS512})
	}
	if len(key) < p.minKey {
		return nil, ErrKeyTooSmall
	}
	return &HMACSigner{alg: alg, hash: p.hash, key: key}, nil
}

// Algorithm returns the JWS algorithm identifier.
func (s *HMACSigner) Algorithm() string {
	return s.alg
}

// Algorithms returns the single algorithm the shared key is bound to.
func (s *HMACSigner) Algorithms() []string {
	return []string{s.alg}
}

// Sign computes the MAC over data.
func (s *HMACSigner) Sign(data []byte) ([]byte, error) {
	return hmac.Compute(s.hash, s.key, data)
}

// Verify recomputes the MAC and compares it in constant time.
func (s *HMACSigner) Verify(data, signature []byte) error {
	want, err := hmac.Compute(s.hash, s.key, data)
	if err != nil {
		return err
	}
	if !subtle.AreEqual(signature, want) {
		return ErrSignatureInvalid
	}
	return nil
}

// rsParams maps the RSA algorithms to their hash and padding scheme.
var rsParams = map[string]struct {
	hash crypto.Hash
	pss  bool
}{
	RS256: {crypto.SHA256, false},
	RS384: {crypto.SHA384, false},
	RS512: {crypto.SHA512, false},
	PS256: {crypto.SHA256, true},
	PS384: {crypto.SHA384, true},
	PS512: {crypto.SHA512, true},
}

func rsAlgorithms() []string {
	return []string{RS256, RS384, RS512, PS256, PS384, PS512}
}

// minRSABits is the smallest RSA modulus RFC 7518 Section 3.3 permits.
const minRSABits = 2048

// RSASigner signs with RSASSA-PKCS1-v1_5 (RS) or RSASSA-PSS (PS).
type RSASigner struct {
	alg  string
	hash crypto.Hash
	pss  bool
	key  *rsa.PrivateKey
}

// NewRSASigner creates a signer for an RS or PS algorithm.
func NewRSASigner(alg string, key *rsa.PrivateKey) (*RSASigner, error) {
	p, ok := rsParams[alg]
	if !ok {
		return nil, Unsupported("algorithm", alg, rsAlgorithms())
	}
	if key.N.BitLen() < minRSABits {
		return nil, ErrKeyTooSmall
	}
	return &RSASigner{alg: alg, hash: p.hash, pss: p.pss, key: key}, nil
}

// Algorithm returns the JWS algorithm identifier.
func (s *RSASigner) Algorithm() string {
	return s.alg
}

// Sign computes the signature over data.
func (s *RSASigner) Sign(data []byte) ([]byte, error) {
	digest := digest(s.hash, data)
	if s.pss {
		return rsa.SignPSS(rand.Reader, s.key, s.hash, digest, &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
		})
	}
	return rsa.SignPKCS1v15(rand.Reader, s.key, s.hash, digest)
}

// RSAVerifier verifies RS and PS signatures.
type RSAVerifier struct {
	alg  string
	hash crypto.Hash
	pss  bool
	key  *rsa.PublicKey
}

// NewRSAVerifier creates a verifier for an RS or PS algorithm.
func NewRSAVerifier(alg string, key *rsa.PublicKey) (*RSAVerifier, error) {
	p, ok := rsParams[alg]
	if !ok {
		return nil, Unsupported("algorithm", alg, rsAlgorithms())
	}
	if key.N.BitLen() < minRSABits {
		return nil, ErrKeyTooSmall
	}
	return &RSAVerifier{alg: alg, hash: p.hash, pss: p.pss, key: key}, nil
}

// Algorithms returns the single algorithm the verifier accepts.
func (v *RSAVerifier) Algorithms() []string {
	return []string{v.alg}
}

// Verify checks the signature over data.
func (v *RSAVerifier) Verify(data, signature []byte) error {
	d := digest(v.hash, data)
	var err error
	if v.pss {
		err = rsa.VerifyPSS(v.key, v.hash, d, signature, &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
		})
	} else {
		err = rsa.VerifyPKCS1v15(v.key, v.hash, d, signature)
	}
	if err != nil {
		return ErrSignatureInvalid
	}
	return nil
}

// esParams maps the ES algorithms to curve, hash, and the byte size of each
// signature half. JWS ECDSA signatures are the raw R || S concatenation, not
// ASN.1.
var esParams = map[string]struct {
	curve elliptic.Curve
	hash  crypto.Hash
	size  int
}{
	ES256: {elliptic.P256(), crypto.SHA256, 32},
	ES384: {elliptic.P384(), crypto.SHA384, 48},
	ES512: {elliptic.P521(), crypto.SHA512, 66},
}

func esAlgorithms() []string {
	return []string{ES256, ES384, ES512}
}

// ECDSASigner signs with the ES family over the NIST curves.
type ECDSASigner struct {
	alg  string
	hash crypto.Hash
	size int
	key  *ecdsa.PrivateKey
}

// NewECDSASigner creates a signer for an ES algorithm. The key's curve must
// match the one the algorithm mandates.
func NewECDSASigner(alg string, key *ecdsa.PrivateKey) (*ECDSASigner, error) {
	p, ok := esParams[alg]
	if !ok {
		return nil, Unsupported("algorithm", alg, esAlgorithms())
	}
	if key.Curve != p.curve {
		return nil, Unsupported("curve", key.Curve.Params().Name,
			[]string{p.curve.Params().Name})
	}
	return &ECDSASigner{alg: alg, hash: p.hash, size: p.size, key: key}, nil
}

// Algorithm returns the JWS algorithm identifier.
func (s *ECDSASigner) Algorithm() string {
	return s.alg
}

// Sign computes the raw R || S signature over data.
func (s *ECDSASigner) Sign(data []byte) ([]byte, error) {
	r, sv, err := ecdsa.Sign(rand.Reader, s.key, digest(s.hash, data))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 2*s.size)
	r.FillBytes(out[:s.size])
	sv.FillBytes(out[s.size:])
	return out, nil
}

// ECDSAVerifier verifies ES signatures.
type ECDSAVerifier struct {
	alg  string
	hash crypto.Hash
	size int
	key  *ecdsa.PublicKey
}

// NewECDSAVerifier creates a verifier for an ES algorithm. The key's curve
// must match the one the algorithm mandates.
func NewECDSAVerifier(alg string, key *ecdsa.PublicKey) (*ECDSAVerifier, error) {
	p, ok := esParams[alg]
	if !ok {
		return nil, Unsupported("algorithm", alg, esAlgorithms())
	}
	if key.Curve != p.curve {
		return nil, Unsupported("curve", key.Curve.Params().Name,
			[]string{p.curve.Params().Name})
	}
	return &ECDSAVerifier{alg: alg, hash: p.hash, size: p.size, key: key}, nil
}

// Algorithms returns the single algorithm the verifier accepts.
func (v *ECDSAVerifier) Algorithms() []string {
	return []string{v.alg}
}

// Verify checks the raw R || S signature over data.
func (v *ECDSAVerifier) Verify(data, signature []byte) error {
	if len(signature) != 2*v.size {
		return ErrSignatureInvalid
	}
	r := new(big.Int).SetBytes(signature[:v.size])
	s := new(big.Int).SetBytes(signature[v.size:])
	if !ecdsa.Verify(v.key, digest(v.hash, data), r, s) {
		return ErrSignatureInvalid
	}
	return nil
}

// EdDSASigner signs with Ed25519 or Ed448.
//
// https://datatracker.ietf.org/doc/html/rfc8037#section-3.1
type EdDSASigner struct {
	ed25519Key ed25519.PrivateKey
	ed448Key   ed448.PrivateKey
}

// NewEd25519Signer creates an EdDSA signer over an Ed25519 key.
func NewEd25519Signer(key ed25519.PrivateKey) (*EdDSASigner, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, ErrKeyTooSmall
	}
	return &EdDSASigner{ed25519Key: key}, nil
}

// NewEd448Signer creates an EdDSA signer over an Ed448 key.
func NewEd448Signer(key ed448.PrivateKey) (*EdDSASigner, error) {
	if len(key) != ed448.PrivateKeySize {
		return nil, ErrKeyTooSmall
	}
	return &EdDSASigner{ed448Key: key}, nil
}

// Algorithm returns the JWS algorithm identifier.
func (s *EdDSASigner) Algorithm() string {
	return EdDSA
}

// Sign computes the signature over data.
func (s *EdDSASigner) Sign(data []byte) ([]byte, error) {
	if s.ed25519Key != nil {
		return ed25519.Sign(s.ed25519Key, data), nil
	}
	return ed448.Sign(s.ed448Key, data, ""), nil
}

// EdDSAVerifier verifies Ed25519 or Ed448 signatures.
type EdDSAVerifier struct {
	ed25519Key ed25519.PublicKey
	ed448Key   ed448.PublicKey
}

// NewEd25519Verifier creates an EdDSA verifier over an Ed25519 public key.
// The key is checked to be a valid curve point before use.
func NewEd25519Verifier(key ed25519.PublicKey) (*EdDSAVerifier, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	if _, err := new(edwards25519.Point).SetBytes(key); err != nil {
		return nil, ErrInvalidPublicKey
	}
	return &EdDSAVerifier{ed25519Key: key}, nil
}

// NewEd448Verifier creates an EdDSA verifier over an Ed448 public key.
func NewEd448Verifier(key ed448.PublicKey) (*EdDSAVerifier, error) {
	if len(key) != ed448.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return &EdDSAVerifier{ed448Key: key}, nil
}

// Algorithms returns the single algorithm the verifier accepts.
func (v *EdDSAVerifier) Algorithms() []string {
	return []string{EdDSA}
}

// Verify checks the signature over data.
func (v *EdDSAVerifier) Verify(data, signature []byte) error {
	if v.ed25519Key != nil {
		if !ed25519.Verify(v.ed25519Key, data, signature) {
			return ErrSignatureInvalid
		}
		return nil
	}
	if !ed448.Verify(v.ed448Key, data, signature, "") {
		return ErrSignatureInvalid
	}
	return nil
}

func digest(h crypto.Hash, data []byte) []byte {
	d := h.New()
	d.Write(data)
	return d.Sum(nil)
}
