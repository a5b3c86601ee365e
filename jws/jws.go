// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jws provides the JSON Web Signature object and its state machine.
//
// https://datatracker.ietf.org/doc/html/rfc7515
package jws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dark-bio/jose-go/header"
	"github.com/dark-bio/jose-go/internal/base64url"
	"github.com/dark-bio/jose-go/jwa"
)

// State is the lifecycle position of a signature object. The lattice is
// monotonic: no transition ever moves an object backwards.
type State int

// Object lifecycle states
const (
	StateUnsigned State = iota
	StateSigned
	StateVerified
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnsigned:
		return "UNSIGNED"
	case StateSigned:
		return "SIGNED"
	case StateVerified:
		return "VERIFIED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Error types for signature object failures
var (
	ErrInvalidState   = errors.New("jws: operation not permitted in current state")
	ErrCriticalHeader = errors.New("jws: unrecognized critical header parameter")
	ErrMalformed      = errors.New("jws: malformed compact serialization")
)

// Object is a JWS protocol object. It is built unsigned from a header and
// payload, moves to signed by exactly one Sign call, and to verified by one
// successful Verify call. An Object is not safe for concurrent state
// transitions; callers must serialize access per instance.
type Object struct {
	state        State
	header       *header.Header
	payload      []byte
	signature    []byte
	signingInput []byte
	critChecker  *header.CritChecker
}

// New creates an unsigned object from a header and payload. The header must
// not be mutated after it is attached.
func New(h *header.Header, payload []byte) *Object {
	return &Object{
		state:       StateUnsigned,
		header:      h,
		payload:     payload,
		critChecker: header.NewCritChecker(),
	}
}

// Parse reconstructs an object from its compact serialization. The presence
// of the signature segment places the object directly in the signed state.
func Parse(compact string) (*Object, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}
	h, err := header.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	payload, err := base64url.Decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	signature, err := base64url.Decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformed, err)
	}
	return &Object{
		state:        StateSigned,
		header:       h,
		payload:      payload,
		signature:    signature,
		signingInput: []byte(parts[0] + "." + parts[1]),
		critChecker:  header.NewCritChecker(),
	}, nil
}

// State returns the current lifecycle state.
func (o *Object) State() State {
	return o.state
}

// Header returns the attached header.
func (o *Object) Header() *header.Header {
	return o.header
}

// Payload returns the payload bytes.
func (o *Object) Payload() []byte {
	return o.payload
}

// Signature returns the signature bytes, nil while unsigned.
func (o *Object) Signature() []byte {
	return o.signature
}

// SetCriticalChecker replaces the critical-parameter checker consulted
// before verification. The default checker whitelists nothing.
func (o *Object) SetCriticalChecker(c *header.CritChecker) {
	o.critChecker = c
}

// Sign computes the signature and moves the object to the signed state.
// Signing is one-shot: a second call, or a call on a parsed object, is an
// invalid-state error, never a silent re-sign.
func (o *Object) Sign(signer jwa.Signer) error {
	if o.state != StateUnsigned {
		return fmt.Errorf("%w: sign from %s", ErrInvalidState, o.state)
	}
	alg, err := o.header.GetAlgorithm()
	if err != nil {
		return err
	}
	if alg != signer.Algorithm() {
		return jwa.Unsupported("algorithm", alg, []string{signer.Algorithm()})
	}
	input, err := o.buildSigningInput()
	if err != nil {
		return err
	}
	signature, err := signer.Sign(input)
	if err != nil {
		return fmt.Errorf("jws: sign %s: %w", alg, err)
	}
	o.signingInput = input
	o.signature = signature
	o.state = StateSigned
	return nil
}

// Verify checks the signature and promotes the object to the verified state
// on success. On verification failure the object simply stays signed and
// the error reports the failure; verified is not revisited, and a verified
// object cannot be re-verified without re-parsing from the wire.
//
// The critical-header policy and the algorithm negotiation both run before
// the signature is examined.
func (o *Object) Verify(verifier jwa.Verifier) error {
	if o.state != StateSigned {
		return fmt.Errorf("%w: verify from %s", ErrInvalidState, o.state)
	}
	if !o.critChecker.HeaderPasses(o.header) {
		return ErrCriticalHeader
	}
	alg, err := o.header.GetAlgorithm()
	if err != nil {
		return err
	}
	supported := verifier.Algorithms()
	if !contains(supported, alg) {
		return jwa.Unsupported("algorithm", alg, supported)
	}
	if err := verifier.Verify(o.signingInput, o.signature); err != nil {
		return fmt.Errorf("jws: verify %s: %w", alg, err)
	}
	o.state = StateVerified
	return nil
}

// Compact returns the compact serialization
// header.payload.signature. The object must be signed.
func (o *Object) Compact() (string, error) {
	if o.state == StateUnsigned {
		return "", fmt.Errorf("%w: serialize from %s", ErrInvalidState, o.state)
	}
	return string(o.signingInput) + "." + base64url.Encode(o.signature), nil
}

func (o *Object) buildSigningInput() ([]byte, error) {
	encodedHeader, err := o.header.Encoded()
	if err != nil {
		return nil, err
	}
	return []byte(encodedHeader + "." + base64url.Encode(o.payload)), nil
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
