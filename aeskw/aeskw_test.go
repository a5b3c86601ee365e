// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aeskw

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

// Test vectors from RFC 3394 Section 4.
func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		kek     string
		cek     string
		wrapped string
	}{
		// 4.1: 128-bit key data with a 128-bit KEK
		{
			name:    "128 data 128 kek",
			kek:     "000102030405060708090a0b0c0d0e0f",
			cek:     "00112233445566778899aabbccddeeff",
			wrapped: "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5",
		},
		// 4.2: 128-bit key data with a 192-bit KEK
		{
			name:    "128 data 192 kek",
			kek:     "000102030405060708090a0b0c0d0e0f1011121314151617",
			cek:     "00112233445566778899aabbccddeeff",
			wrapped: "96778b25ae6ca435f92b5b97c050aed2468ab8a17ad84e5d",
		},
		// 4.6: 256-bit key data with a 256-bit KEK
		{
			name:    "256 data 256 kek",
			kek:     "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
			cek:     "00112233445566778899aabbccddeeff000102030405060708090a0b0c0d0e0f",
			wrapped: "28c9f404c4b810f4cbccb35cfb87f8263f5786e2d80ed326cbc7f0e71a99f43bfb988b9b7a02dd21",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kek, _ := hex.DecodeString(tt.kek)
			cek, _ := hex.DecodeString(tt.cek)
			want, _ := hex.DecodeString(tt.wrapped)

			got, err := Wrap(kek, cek)
			if err != nil {
				t.Fatalf("Wrap: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Wrap() = %x, want %x", got, want)
			}
			back, err := Unwrap(kek, got)
			if err != nil {
				t.Fatalf("Unwrap: %v", err)
			}
			if !bytes.Equal(back, cek) {
				t.Errorf("Unwrap() = %x, want %x", back, cek)
			}
		})
	}
}

// Test vector from RFC 7517 Appendix C.7: the content encryption key wrapped
// under the PBES2-derived key.
func TestWrapRFC7517AppendixC(t *testing.T) {
	cek := []byte{
		111, 27, 25, 52, 66, 29, 20, 78, 92, 176, 56, 240, 65, 208, 82, 112,
		161, 131, 36, 55, 202, 236, 185, 172, 129, 23, 153, 194, 195, 48, 253, 182,
	}
	kek, _ := hex.DecodeString("6eaba95c815c6d75e9f274e9aa0e184b")
	want, _ := hex.DecodeString("4eba973b0b8d51f0d5f553d335bc86bc427d24c8de7c0567f93475b88c51f69ea1b11421f5393b04")

	got, err := Wrap(kek, cek)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Wrap() = %x, want %x", got, want)
	}
}

// Wrapping must be deterministic and length-expanding by exactly 8 bytes.
func TestWrapRoundTrip(t *testing.T) {
	for _, kekLen := range []int{16, 24, 32} {
		for _, cekLen := range []int{16, 24, 32, 64} {
			kek := make([]byte, kekLen)
			cek := make([]byte, cekLen)
			for i := range kek {
				kek[i] = byte(i + 1)
			}
			for i := range cek {
				cek[i] = byte(i * 3)
			}
			w1, err := Wrap(kek, cek)
			if err != nil {
				t.Fatalf("Wrap(kek %d, cek %d): %v", kekLen, cekLen, err)
			}
			w2, _ := Wrap(kek, cek)
			if !bytes.Equal(w1, w2) {
				t.Error("wrapping the same input twice produced different output")
			}
			if len(w1) != cekLen+8 {
				t.Errorf("wrapped length = %d, want %d", len(w1), cekLen+8)
			}
			back, err := Unwrap(kek, w1)
			if err != nil {
				t.Fatalf("Unwrap: %v", err)
			}
			if !bytes.Equal(back, cek) {
				t.Errorf("round trip = %x, want %x", back, cek)
			}
		}
	}
}

// A wrong key and a corrupted ciphertext must be indistinguishable.
func TestUnwrapIntegrity(t *testing.T) {
	kek := make([]byte, 16)
	cek := make([]byte, 16)
	wrapped, err := Wrap(kek, cek)
	if err != nil {
		t.Fatal(err)
	}

	wrongKek := make([]byte, 16)
	wrongKek[0] = 1
	_, err1 := Unwrap(wrongKek, wrapped)
	if !errors.Is(err1, ErrIntegrity) {
		t.Errorf("wrong key error = %v, want ErrIntegrity", err1)
	}

	corrupted := append([]byte(nil), wrapped...)
	corrupted[9] ^= 0x80
	_, err2 := Unwrap(kek, corrupted)
	if !errors.Is(err2, ErrIntegrity) {
		t.Errorf("corrupted ciphertext error = %v, want ErrIntegrity", err2)
	}

	if err1.Error() != err2.Error() {
		t.Errorf("wrong-key and corrupted errors differ: %q vs %q", err1, err2)
	}
}

func TestInvalidInputs(t *testing.T) {
	if _, err := Wrap(make([]byte, 15), make([]byte, 16)); !errors.Is(err, ErrInvalidKEKLength) {
		t.Errorf("short KEK error = %v, want ErrInvalidKEKLength", err)
	}
	if _, err := Wrap(make([]byte, 16), make([]byte, 12)); !errors.Is(err, ErrInvalidCEKLength) {
		t.Errorf("short CEK error = %v, want ErrInvalidCEKLength", err)
	}
	if _, err := Wrap(make([]byte, 16), make([]byte, 17)); !errors.Is(err, ErrInvalidCEKLength) {
		t.Errorf("ragged CEK error = %v, want ErrInvalidCEKLength", err)
	}
	if _, err := Unwrap(make([]byte, 16), make([]byte, 16)); !errors.Is(err, ErrInvalidWrapped) {
		t.Errorf("short wrapped error = %v, want ErrInvalidWrapped", err)
	}
}
