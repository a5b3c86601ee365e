// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jws

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/dark-bio/jose-go/header"
	"github.com/dark-bio/jose-go/jwa"
)

func hs256Key(t *testing.T) []byte {
	t.Helper()
	key, err := base64.RawURLEncoding.DecodeString(
		"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow")
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// Test vector from RFC 7515 Appendix A.1: parsing and verifying the example
// compact serialization.
func TestParseVerifyRFC7515(t *testing.T) {
	compact := "eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9" +
		".eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFt" +
		"cGxlLmNvbS9pc19yb290Ijp0cnVlfQ" +
		".dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	obj, err := Parse(compact)
	if err != nil {
		t.Fatal(err)
	}
	if obj.State() != StateSigned {
		t.Fatalf("State() = %v, want SIGNED", obj.State())
	}

	verifier, err := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := obj.Verify(verifier); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if obj.State() != StateVerified {
		t.Errorf("State() = %v, want VERIFIED", obj.State())
	}

	// Serialization must round-trip unchanged.
	out, err := obj.Compact()
	if err != nil {
		t.Fatal(err)
	}
	if out != compact {
		t.Errorf("Compact() = %s, want %s", out, compact)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	h := header.New()
	h.Set(header.Algorithm, jwa.HS256)

	obj := New(h, []byte(`{"iss":"joe"}`))
	if obj.State() != StateUnsigned {
		t.Fatalf("fresh object state = %v, want UNSIGNED", obj.State())
	}

	signer, err := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := obj.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if obj.State() != StateSigned {
		t.Fatalf("state after sign = %v, want SIGNED", obj.State())
	}

	compact, err := obj.Compact()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(compact)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(parsed.Payload(), obj.Payload()) {
		t.Errorf("payload = %q, want %q", parsed.Payload(), obj.Payload())
	}
	if err := parsed.Verify(signer); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

// Signing is one-shot; verifying an unsigned object is a contract
// violation.
func TestStateMachineTransitions(t *testing.T) {
	h := header.New()
	h.Set(header.Algorithm, jwa.HS256)
	signer, _ := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))

	obj := New(h, []byte("payload"))

	// Verify before sign is rejected.
	if err := obj.Verify(signer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("verify from UNSIGNED error = %v, want ErrInvalidState", err)
	}
	// Serialize before sign is rejected.
	if _, err := obj.Compact(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("compact from UNSIGNED error = %v, want ErrInvalidState", err)
	}

	if err := obj.Sign(signer); err != nil {
		t.Fatal(err)
	}
	// Double sign is rejected, never silently re-signs.
	if err := obj.Sign(signer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double sign error = %v, want ErrInvalidState", err)
	}

	if err := obj.Verify(signer); err != nil {
		t.Fatal(err)
	}
	// A verified object cannot be re-verified or re-signed.
	if err := obj.Verify(signer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("re-verify error = %v, want ErrInvalidState", err)
	}
	if err := obj.Sign(signer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("sign from VERIFIED error = %v, want ErrInvalidState", err)
	}
}

// A failed verification leaves the object signed; failure is a result, not
// a state.
func TestVerifyFailureKeepsState(t *testing.T) {
	h := header.New()
	h.Set(header.Algorithm, jwa.HS256)
	signer, _ := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))

	obj := New(h, []byte("payload"))
	if err := obj.Sign(signer); err != nil {
		t.Fatal(err)
	}

	wrongKey := make([]byte, 64)
	wrong, _ := jwa.NewHMACSigner(jwa.HS256, wrongKey)
	if err := obj.Verify(wrong); !errors.Is(err, jwa.ErrSignatureInvalid) {
		t.Fatalf("Verify(wrong key) error = %v, want ErrSignatureInvalid", err)
	}
	if obj.State() != StateSigned {
		t.Errorf("state after failed verify = %v, want SIGNED", obj.State())
	}

	// The same object can still be verified with the right key.
	if err := obj.Verify(signer); err != nil {
		t.Errorf("Verify after failure: %v", err)
	}
	if obj.State() != StateVerified {
		t.Errorf("state = %v, want VERIFIED", obj.State())
	}
}

func TestSignAlgorithmMismatch(t *testing.T) {
	h := header.New()
	h.Set(header.Algorithm, jwa.HS512)
	signer, _ := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))

	obj := New(h, []byte("payload"))
	err := obj.Sign(signer)
	var ue *jwa.UnsupportedError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UnsupportedError", err)
	}
	if want := "Unsupported algorithm HS512, must be HS256"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if obj.State() != StateUnsigned {
		t.Errorf("state after failed sign = %v, want UNSIGNED", obj.State())
	}
}

// The algorithm negotiation runs before any cryptographic work: a token
// whose header names an algorithm the verifier does not accept is rejected
// up front, closing the classic alg-substitution downgrade.
func TestVerifyAlgorithmNegotiation(t *testing.T) {
	h := header.New()
	h.Set(header.Algorithm, jwa.HS256)
	signer, _ := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))

	obj := New(h, []byte("payload"))
	if err := obj.Sign(signer); err != nil {
		t.Fatal(err)
	}
	compact, _ := obj.Compact()

	parsed, err := Parse(compact)
	if err != nil {
		t.Fatal(err)
	}
	pub, _, _ := ed25519.GenerateKey(rand.Reader)
	verifier, err := jwa.NewEd25519Verifier(pub)
	if err != nil {
		t.Fatal(err)
	}
	verr := parsed.Verify(verifier)
	var ue *jwa.UnsupportedError
	if !errors.As(verr, &ue) {
		t.Fatalf("error = %v, want UnsupportedError", verr)
	}
	if want := "Unsupported algorithm HS256, must be EdDSA"; verr.Error() != want {
		t.Errorf("Error() = %q, want %q", verr.Error(), want)
	}
	if parsed.State() != StateSigned {
		t.Errorf("state = %v, want SIGNED", parsed.State())
	}
}

// The critical-header gate runs before signature verification.
func TestVerifyCriticalHeader(t *testing.T) {
	h := header.New()
	h.Set(header.Algorithm, jwa.HS256)
	h.Set(header.Critical, []string{"http://example.invalid/UNDEFINED"})
	h.Set("http://example.invalid/UNDEFINED", true)
	signer, _ := jwa.NewHMACSigner(jwa.HS256, hs256Key(t))

	obj := New(h, []byte("payload"))
	if err := obj.Sign(signer); err != nil {
		t.Fatal(err)
	}
	compact, _ := obj.Compact()

	parsed, _ := Parse(compact)
	if err := parsed.Verify(signer); !errors.Is(err, ErrCriticalHeader) {
		t.Errorf("Verify error = %v, want ErrCriticalHeader", err)
	}
	if parsed.State() != StateSigned {
		t.Errorf("state = %v, want SIGNED", parsed.State())
	}

	// Whitelisting the extension lets the same wire bytes verify.
	parsed2, _ := Parse(compact)
	checker := header.NewCritChecker()
	checker.Ignore("http://example.invalid/UNDEFINED")
	parsed2.SetCriticalChecker(checker)
	if err := parsed2.Verify(signer); err != nil {
		t.Errorf("Verify with whitelist: %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"",
		"onlyone",
		"a.b",
		"a.b.c.d",
		"!!!.eyJ9.c2ln",
	}
	for _, c := range cases {
		if _, err := Parse(c); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformed", c, err)
		}
	}
}
