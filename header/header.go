// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package header provides the JOSE header model: an insertion-ordered
// parameter map with a deterministic Base64URL encoding and typed accessors,
// plus the critical-parameter policy check.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4
// https://datatracker.ietf.org/doc/html/rfc7516#section-4
package header

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dark-bio/jose-go/internal/base64url"
)

// Registered header parameter names.
//
// https://www.iana.org/assignments/jose/jose.xhtml
const (
	Algorithm            = "alg"
	Encryption           = "enc"
	Compression          = "zip"
	JWKSetURL            = "jku"
	JSONWebKey           = "jwk"
	KeyID                = "kid"
	X509URL              = "x5u"
	X509CertChain        = "x5c"
	X509Thumbprint       = "x5t"
	X509ThumbprintS256   = "x5t#S256"
	Type                 = "typ"
	ContentType          = "cty"
	Critical             = "crit"
	EphemeralPublicKey   = "epk"
	AgreementPartyUInfo  = "apu"
	AgreementPartyVInfo  = "apv"
	InitializationVector = "iv"
	AuthenticationTag    = "tag"
	PBES2SaltInput       = "p2s"
	PBES2Count           = "p2c"
)

// Error types for header access failures
var (
	ErrMissingParameter = errors.New("header: missing parameter")
	ErrInvalidParameter = errors.New("header: invalid parameter")
	ErrMalformed        = errors.New("header: malformed encoding")
)

// Header is an ordered mapping of parameter names to values. Parameters are
// set before the header is attached to a protocol object and must not be
// mutated afterwards; the encoding is deterministic because insertion order
// is preserved.
type Header struct {
	names  []string
	params map[string]any
	// raw holds the wire encoding when the header was parsed, so that AAD
	// and signing input reproduce the received bytes exactly.
	raw string
}

// New creates an empty header.
func New() *Header {
	return &Header{params: make(map[string]any)}
}

// Set stores a parameter value, keeping first-set order for encoding.
func (h *Header) Set(name string, value any) {
	if _, ok := h.params[name]; !ok {
		h.names = append(h.names, name)
	}
	h.params[name] = value
	h.raw = ""
}

// Get returns the raw parameter value.
func (h *Header) Get(name string) (any, bool) {
	v, ok := h.params[name]
	return v, ok
}

// Names returns the parameter names in encoding order.
func (h *Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Encoded returns the canonical Base64URL text of the header's JSON
// serialization. A parsed header reproduces the exact received encoding.
func (h *Header) Encoded() (string, error) {
	if h.raw != "" {
		return h.raw, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range h.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return "", fmt.Errorf("header: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(h.params[name])
		if err != nil {
			return "", fmt.Errorf("header: %w", err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return base64url.Encode(buf.Bytes()), nil
}

// Parse decodes a Base64URL header segment. The original encoding is kept so
// that Encoded returns the received bytes unchanged.
func Parse(encoded string) (*Header, error) {
	raw, err := base64url.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	h := New()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, ErrMalformed
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, ErrMalformed
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, ErrMalformed
		}
		if _, dup := h.params[name]; dup {
			// RFC 7515 Section 4: duplicate names must be rejected.
			return nil, fmt.Errorf("%w: duplicate parameter %s", ErrMalformed, name)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, ErrMalformed
		}
		h.Set(name, value)
	}
	if tok, err = dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, ErrMalformed
	}
	h.raw = encoded
	return h, nil
}

// StringParameter returns a string-valued parameter, reporting the missing
// parameter by name.
func (h *Header) StringParameter(name string) (string, error) {
	v, ok := h.params[name]
	if !ok {
		return "", fmt.Errorf("%w %s", ErrMissingParameter, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w %s", ErrInvalidParameter, name)
	}
	return s, nil
}

// BytesParameter returns a Base64URL-valued parameter decoded to raw bytes.
func (h *Header) BytesParameter(name string) ([]byte, error) {
	s, err := h.StringParameter(name)
	if err != nil {
		return nil, err
	}
	raw, err := base64url.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w %s", ErrInvalidParameter, name)
	}
	return raw, nil
}

// IntParameter returns an integer-valued parameter.
func (h *Header) IntParameter(name string) (int, error) {
	v, ok := h.params[name]
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrMissingParameter, name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%w %s", ErrInvalidParameter, name)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w %s", ErrInvalidParameter, name)
		}
		return int(i), nil
	}
	return 0, fmt.Errorf("%w %s", ErrInvalidParameter, name)
}

// ObjectParameter returns an object-valued parameter such as an embedded
// ephemeral public key.
func (h *Header) ObjectParameter(name string) (map[string]any, error) {
	v, ok := h.params[name]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrMissingParameter, name)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrInvalidParameter, name)
	}
	return m, nil
}

// GetAlgorithm returns the "alg" parameter.
func (h *Header) GetAlgorithm() (string, error) {
	return h.StringParameter(Algorithm)
}

// GetEncryption returns the "enc" parameter.
func (h *Header) GetEncryption() (string, error) {
	return h.StringParameter(Encryption)
}

// GetCritical returns the "crit" parameter as a list of names, or nil when
// the header declares none. A declared but malformed crit list is an error.
func (h *Header) GetCritical() ([]string, error) {
	v, ok := h.params[Critical]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			if len(ss) == 0 {
				return nil, fmt.Errorf("%w %s", ErrInvalidParameter, Critical)
			}
			return ss, nil
		}
		return nil, fmt.Errorf("%w %s", ErrInvalidParameter, Critical)
	}
	if len(list) == 0 {
		// RFC 7515 Section 4.1.11: an empty crit list is malformed.
		return nil, fmt.Errorf("%w %s", ErrInvalidParameter, Critical)
	}
	names := make([]string, len(list))
	for i, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrInvalidParameter, Critical)
		}
		names[i] = s
	}
	return names, nil
}
