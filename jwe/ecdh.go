// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jwe

import (
	"crypto/ecdh"
	"errors"
	"io"

	"github.com/cloudflare/circl/dh/x448"

	"github.com/dark-bio/jose-go/aeskw"
	"github.com/dark-bio/jose-go/concatkdf"
	"github.com/dark-bio/jose-go/header"
	"github.com/dark-bio/jose-go/internal/base64url"
	"github.com/dark-bio/jose-go/jwa"
)

// Error types for key agreement failures
var (
	ErrInvalidEphemeralKey = errors.New("jwe: invalid ephemeral public key")
	ErrKeyAgreement        = errors.New("jwe: key agreement failed")
)

// ecdhKWParams maps the wrapping ECDH-ES variants to the size of the derived
// key-encryption key. Plain ECDH-ES is absent: it derives the content
// encryption key directly.
var ecdhKWParams = map[string]int{
	jwa.ECDHESA128KW: 16,
	jwa.ECDHESA192KW: 24,
	jwa.ECDHESA256KW: 32,
}

func ecdhAlgorithms() []string {
	return []string{jwa.ECDHES, jwa.ECDHESA128KW, jwa.ECDHESA192KW, jwa.ECDHESA256KW}
}

// agreement abstracts one Diffie-Hellman exchange: the sender generates an
// ephemeral key against the recipient's static key, the recipient combines
// its static key with the received ephemeral key.
type agreement interface {
	// generate creates an ephemeral key pair, returning its JWK form for the
	// "epk" header parameter and the shared secret.
	generate(random io.Reader) (epk map[string]any, z []byte, err error)

	// shared combines the static private key with the sender's ephemeral
	// public key.
	shared(epk map[string]any) ([]byte, error)
}

// ecdhAgreement runs the exchange over the curves crypto/ecdh implements:
// the NIST curves as "EC" keys and X25519 as an "OKP" key.
type ecdhAgreement struct {
	curve ecdh.Curve
	crv   string
	okp   bool
	pub   *ecdh.PublicKey
	priv  *ecdh.PrivateKey
}

func newECDHAgreement(curve ecdh.Curve) (*ecdhAgreement, error) {
	switch curve {
	case ecdh.P256():
		return &ecdhAgreement{curve: curve, crv: "P-256"}, nil
	case ecdh.P384():
		return &ecdhAgreement{curve: curve, crv: "P-384"}, nil
	case ecdh.P521():
		return &ecdhAgreement{curve: curve, crv: "P-521"}, nil
	case ecdh.X25519():
		return &ecdhAgreement{curve: curve, crv: "X25519", okp: true}, nil
	}
	return nil, jwa.Unsupported("curve", "unknown",
		[]string{"P-256", "P-384", "P-521", "X25519", "X448"})
}

func (a *ecdhAgreement) generate(random io.Reader) (map[string]any, []byte, error) {
	ephemeral, err := a.curve.GenerateKey(random)
	if err != nil {
		return nil, nil, err
	}
	z, err := ephemeral.ECDH(a.pub)
	if err != nil {
		return nil, nil, ErrKeyAgreement
	}
	return a.encodePublic(ephemeral.PublicKey()), z, nil
}

func (a *ecdhAgreement) shared(epk map[string]any) ([]byte, error) {
	crv, err := stringField(epk, "crv")
	if err != nil {
		return nil, err
	}
	if crv != a.crv {
		return nil, jwa.Unsupported("curve", crv, []string{a.crv})
	}
	x, err := bytesField(epk, "x")
	if err != nil {
		return nil, err
	}
	raw := x
	if !a.okp {
		y, err := bytesField(epk, "y")
		if err != nil {
			return nil, err
		}
		// Uncompressed point: 0x04 || X || Y.
		raw = make([]byte, 0, 1+len(x)+len(y))
		raw = append(raw, 0x04)
		raw = append(raw, x...)
		raw = append(raw, y...)
	}
	pub, err := a.curve.NewPublicKey(raw)
	if err != nil {
		return nil, ErrInvalidEphemeralKey
	}
	z, err := a.priv.ECDH(pub)
	if err != nil {
		return nil, ErrKeyAgreement
	}
	return z, nil
}

func (a *ecdhAgreement) encodePublic(pub *ecdh.PublicKey) map[string]any {
	raw := pub.Bytes()
	if a.okp {
		return map[string]any{
			"kty": "OKP",
			"crv": a.crv,
			"x":   base64url.Encode(raw),
		}
	}
	// Bytes returns the uncompressed point 0x04 || X || Y.
	half := (len(raw) - 1) / 2
	return map[string]any{
		"kty": "EC",
		"crv": a.crv,
		"x":   base64url.Encode(raw[1 : 1+half]),
		"y":   base64url.Encode(raw[1+half:]),
	}
}

// x448Agreement runs the exchange over X448, which crypto/ecdh does not
// implement.
//
// https://datatracker.ietf.org/doc/html/rfc8037#section-3.2
type x448Agreement struct {
	pub  *x448.Key
	priv *x448.Key
}

func (a *x448Agreement) generate(random io.Reader) (map[string]any, []byte, error) {
	var secret, public, z x448.Key
	if _, err := io.ReadFull(random, secret[:]); err != nil {
		return nil, nil, err
	}
	x448.KeyGen(&public, &secret)
	if !x448.Shared(&z, &secret, a.pub) {
		return nil, nil, ErrKeyAgreement
	}
	epk := map[string]any{
		"kty": "OKP",
		"crv": "X448",
		"x":   base64url.Encode(public[:]),
	}
	return epk, z[:], nil
}

func (a *x448Agreement) shared(epk map[string]any) ([]byte, error) {
	crv, err := stringField(epk, "crv")
	if err != nil {
		return nil, err
	}
	if crv != "X448" {
		return nil, jwa.Unsupported("curve", crv, []string{"X448"})
	}
	x, err := bytesField(epk, "x")
	if err != nil {
		return nil, err
	}
	if len(x) != x448.Size {
		return nil, ErrInvalidEphemeralKey
	}
	var pub, z x448.Key
	copy(pub[:], x)
	if !x448.Shared(&z, a.priv, &pub) {
		return nil, ErrKeyAgreement
	}
	return z[:], nil
}

// ECDHESEncrypter establishes the content encryption key by ephemeral-static
// key agreement against the recipient's public key: plain ECDH-ES derives
// the key directly, the +A*KW variants derive a key-encryption key and wrap.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6
type ECDHESEncrypter struct {
	alg       string
	agreement agreement
	apu, apv  []byte
}

// NewECDHESEncrypter creates an encrypter against a recipient key on one of
// the crypto/ecdh curves. apu and apv are the optional raw PartyUInfo and
// PartyVInfo values.
func NewECDHESEncrypter(alg string, recipient *ecdh.PublicKey, apu, apv []byte) (*ECDHESEncrypter, error) {
	if alg != jwa.ECDHES {
		if _, ok := ecdhKWParams[alg]; !ok {
			return nil, jwa.Unsupported("algorithm", alg, ecdhAlgorithms())
		}
	}
	ag, err := newECDHAgreement(recipient.Curve())
	if err != nil {
		return nil, err
	}
	ag.pub = recipient
	return &ECDHESEncrypter{alg: alg, agreement: ag, apu: apu, apv: apv}, nil
}

// NewECDHESX448Encrypter creates an encrypter against a recipient X448 key.
func NewECDHESX448Encrypter(alg string, recipient *x448.Key, apu, apv []byte) (*ECDHESEncrypter, error) {
	if alg != jwa.ECDHES {
		if _, ok := ecdhKWParams[alg]; !ok {
			return nil, jwa.Unsupported("algorithm", alg, ecdhAlgorithms())
		}
	}
	return &ECDHESEncrypter{
		alg:       alg,
		agreement: &x448Agreement{pub: recipient},
		apu:       apu,
		apv:       apv,
	}, nil
}

// Algorithm returns the key management algorithm identifier.
func (e *ECDHESEncrypter) Algorithm() string {
	return e.alg
}

// WrapKey generates an ephemeral key, records it with the party infos in the
// header and derives the key material. Plain ECDH-ES returns the derived key
// as the content encryption key with an empty segment; the wrapping variants
// wrap the proposed key under the derived key-encryption key.
func (e *ECDHESEncrypter) WrapKey(random io.Reader, proposed []byte, enc string, h *header.Header) ([]byte, []byte, error) {
	epk, z, err := e.agreement.generate(random)
	if err != nil {
		return nil, nil, err
	}
	h.Set(header.EphemeralPublicKey, epk)
	if len(e.apu) > 0 {
		h.Set(header.AgreementPartyUInfo, base64url.Encode(e.apu))
	}
	if len(e.apv) > 0 {
		h.Set(header.AgreementPartyVInfo, base64url.Encode(e.apv))
	}
	key, err := deriveAgreedKey(e.alg, enc, z, e.apu, e.apv)
	if err != nil {
		return nil, nil, err
	}
	if e.alg == jwa.ECDHES {
		return key, nil, nil
	}
	wrapped, err := aeskw.Wrap(key, proposed)
	if err != nil {
		return nil, nil, err
	}
	return proposed, wrapped, nil
}

// ECDHESDecrypter recovers the content encryption key by combining the
// recipient's static private key with the ephemeral key from the header.
type ECDHESDecrypter struct {
	alg       string
	agreement agreement
}

// NewECDHESDecrypter creates a decrypter over a private key on one of the
// crypto/ecdh curves.
func NewECDHESDecrypter(alg string, key *ecdh.PrivateKey) (*ECDHESDecrypter, error) {
	if alg != jwa.ECDHES {
		if _, ok := ecdhKWParams[alg]; !ok {
			return nil, jwa.Unsupported("algorithm", alg, ecdhAlgorithms())
		}
	}
	ag, err := newECDHAgreement(key.Curve())
	if err != nil {
		return nil, err
	}
	ag.priv = key
	return &ECDHESDecrypter{alg: alg, agreement: ag}, nil
}

// NewECDHESX448Decrypter creates a decrypter over a private X448 key.
func NewECDHESX448Decrypter(alg string, key *x448.Key) (*ECDHESDecrypter, error) {
	if alg != jwa.ECDHES {
		if _, ok := ecdhKWParams[alg]; !ok {
			return nil, jwa.Unsupported("algorithm", alg, ecdhAlgorithms())
		}
	}
	return &ECDHESDecrypter{alg: alg, agreement: &x448Agreement{priv: key}}, nil
}

// Algorithms returns the single algorithm the key is bound to.
func (d *ECDHESDecrypter) Algorithms() []string {
	return []string{d.alg}
}

// UnwrapKey runs the agreement against the header's ephemeral key and
// derives the key material. Plain ECDH-ES returns it as the content
// encryption key, rejecting a non-empty segment; the wrapping variants
// unwrap the segment under it.
func (d *ECDHESDecrypter) UnwrapKey(encryptedKey []byte, enc string, size int, h *header.Header) ([]byte, error) {
	epk, err := h.ObjectParameter(header.EphemeralPublicKey)
	if err != nil {
		return nil, err
	}
	apu, err := optionalBytes(h, header.AgreementPartyUInfo)
	if err != nil {
		return nil, err
	}
	apv, err := optionalBytes(h, header.AgreementPartyVInfo)
	if err != nil {
		return nil, err
	}
	z, err := d.agreement.shared(epk)
	if err != nil {
		return nil, err
	}
	key, err := deriveAgreedKey(d.alg, enc, z, apu, apv)
	if err != nil {
		return nil, err
	}
	if d.alg == jwa.ECDHES {
		if len(encryptedKey) != 0 {
			return nil, ErrUnexpectedEncryptedKey
		}
		return key, nil
	}
	return aeskw.Unwrap(key, encryptedKey)
}

// deriveAgreedKey runs the Concat KDF over the shared secret with the
// RFC 7518 Section 4.6.2 OtherInfo: AlgorithmID is the "enc" value in direct
// mode and the "alg" value in wrapping mode, the party infos are
// length-prefixed over their raw bytes, and SuppPubInfo is the key bit
// length. The KDF hash is always SHA-256.
func deriveAgreedKey(alg, enc string, z, apu, apv []byte) ([]byte, error) {
	var algorithmID string
	var bits int
	if alg == jwa.ECDHES {
		size, err := cekSize(enc)
		if err != nil {
			return nil, err
		}
		algorithmID, bits = enc, size*8
	} else {
		algorithmID, bits = alg, ecdhKWParams[alg]*8
	}
	kdf, err := concatkdf.New(concatkdf.SHA256)
	if err != nil {
		return nil, err
	}
	otherInfo := concatkdf.ComposeOtherInfo(
		concatkdf.EncodeString(algorithmID),
		concatkdf.EncodeWithLength(apu),
		concatkdf.EncodeWithLength(apv),
		concatkdf.EncodeInt(bits),
	)
	return kdf.DeriveKey(z, bits, otherInfo)
}

func optionalBytes(h *header.Header, name string) ([]byte, error) {
	b, err := h.BytesParameter(name)
	if errors.Is(err, header.ErrMissingParameter) {
		return nil, nil
	}
	return b, err
}

func stringField(obj map[string]any, name string) (string, error) {
	v, ok := obj[name].(string)
	if !ok {
		return "", ErrInvalidEphemeralKey
	}
	return v, nil
}

func bytesField(obj map[string]any, name string) ([]byte, error) {
	s, err := stringField(obj, name)
	if err != nil {
		return nil, err
	}
	raw, err := base64url.Decode(s)
	if err != nil {
		return nil, ErrInvalidEphemeralKey
	}
	return raw, nil
}
