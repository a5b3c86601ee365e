// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hmac

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

// Test vectors from RFC 4231 test case 2.
func TestCompute(t *testing.T) {
	key := []byte("Jefe")
	msg := []byte("what do ya want for nothing?")

	tests := []struct {
		name string
		out  string
	}{
		{SHA256, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"},
		{SHA384, "af45d2e376484031617f78d2b58a6b1b9c7ef464f5a01b47e42ec3736322445e8e2240ca5e69e2c78b3239ecfab21649"},
		{SHA512, "164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea2505549758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, _ := hex.DecodeString(tt.out)
			got, err := Compute(tt.name, key, msg)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Compute() = %x, want %x", got, want)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	a, err := Compute(SHA256, []byte("key"), []byte("msg"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Compute(SHA256, []byte("key"), []byte("msg"))
	if !bytes.Equal(a, b) {
		t.Error("same key and message produced different MACs")
	}
	c, _ := Compute(SHA256, []byte("other"), []byte("msg"))
	if bytes.Equal(a, c) {
		t.Error("different keys produced the same MAC")
	}
}

func TestComputeUnavailable(t *testing.T) {
	if _, err := Compute("SHA-224", []byte("k"), []byte("m")); !errors.Is(err, ErrUnavailableHash) {
		t.Errorf("Compute(SHA-224) error = %v, want ErrUnavailableHash", err)
	}
	if _, err := New("MD5"); !errors.Is(err, ErrUnavailableHash) {
		t.Errorf("New(MD5) error = %v, want ErrUnavailableHash", err)
	}
}
