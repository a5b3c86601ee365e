// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aescbc

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"
)

// Test vectors from RFC 7518 Appendix B.1 through B.3. Key bytes are 0..n-1,
// the plaintext is the Kerckhoffs sentence, the AAD its second principle.
func TestEncryptRFC7518AppendixB(t *testing.T) {
	plaintext, _ := hex.DecodeString(
		"41206369706865722073797374656d206d757374206e6f742062652072657175" +
			"6972656420746f206265207365637265742c20616e64206974206d7573742062" +
			"652061626c6520746f2066616c6c20696e746f207468652068616e6473206f66" +
			"2074686520656e656d7920776974686f757420696e636f6e76656e69656e6365")
	iv, _ := hex.DecodeString("1af38c2dc2b96ffdd86694092341bc04")
	additionalData, _ := hex.DecodeString(
		"546865207365636f6e64207072696e6369706c65206f662041756775737465204b6572636b686f666673")

	tests := []struct {
		name   string
		keyLen int
		e, tag string
	}{
		{
			name:   "A128CBC-HS256",
			keyLen: 32,
			e: "c80edfa32ddf39d5ef00c0b468834279a2e46a1b8049f792f76bfe54b903a9c9" +
				"a94ac9b47ad2655c5f10f9aef71427e2fc6f9b3f399a221489f16362c7032336" +
				"09d45ac69864e3321cf82935ac4096c86e133314c54019e8ca7980dfa4b9cf1b" +
				"384c486f3a54c51078158ee5d79de59fbd34d848b3d69550a67646344427ade5" +
				"4b8851ffb598f7f80074b9473c82e2db",
			tag: "652c3fa36b0a7c5b3219fab3a30bc1c4",
		},
		{
			name:   "A192CBC-HS384",
			keyLen: 48,
			e: "ea65da6b59e61edb419be62d19712ae5d303eeb50052d0dfd6697f77224c8edb" +
				"000d279bdc14c1072654bd30944230c657bed4ca0c9f4a8466f22b226d174621" +
				"4bf8cfc2400add9f5126e479663fc90b3bed787a2f0ffcbf3904be2a641d5c21" +
				"05bfe591bae23b1d7449e532eef60a9ac8bb6c6b01d35d49787bcd57ef484927" +
				"f280adc91ac0c4e79c7b11efc60054e3",
			tag: "8490ac0e58949bfe51875d733f93ac2075168039ccc733d7",
		},
		{
			name:   "A256CBC-HS512",
			keyLen: 64,
			e: "4affaaadb78c31c5da4b1b590d10ffbd3dd8d5d302423526912da037ecbcc7bd" +
				"822c301dd67c373bccb584ad3e9279c2e6d12a1374b77f077553df829410446b" +
				"36ebd97066296ae6427ea75c2e0846a11a09ccf5370dc80bfecbad28c73f09b3" +
				"a3b75e662a2594410ae496b2e2e6609e31e6e02cc837f053d21f37ff4f51950b" +
				"be2638d09dd7a4930930806d0703b1f6",
			tag: "4dd3b4c088a7f45c216839645b2012bf2e6269a8c56a816dbc1b267761955bc5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := make([]byte, tt.keyLen)
			for i := range key {
				key[i] = byte(i)
			}
			wantE, _ := hex.DecodeString(tt.e)
			wantT, _ := hex.DecodeString(tt.tag)

			ciphertext, tag, err := Encrypt(key, iv, plaintext, additionalData)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(ciphertext, wantE) {
				t.Errorf("ciphertext = %x, want %x", ciphertext, wantE)
			}
			if !bytes.Equal(tag, wantT) {
				t.Errorf("tag = %x, want %x", tag, wantT)
			}

			back, err := Decrypt(key, iv, ciphertext, additionalData, tag)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(back, plaintext) {
				t.Errorf("round trip = %x, want %x", back, plaintext)
			}
		})
	}
}

func TestDecryptAuthentication(t *testing.T) {
	key := make([]byte, 32)
	iv, err := GenerateIV(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	ciphertext, tag, err := Encrypt(key, iv, []byte("attack at dawn"), []byte("hdr"))
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]func() ([]byte, error){
		"tampered ciphertext": func() ([]byte, error) {
			c := append([]byte(nil), ciphertext...)
			c[3] ^= 1
			return Decrypt(key, iv, c, []byte("hdr"), tag)
		},
		"tampered tag": func() ([]byte, error) {
			tg := append([]byte(nil), tag...)
			tg[3] ^= 1
			return Decrypt(key, iv, ciphertext, []byte("hdr"), tg)
		},
		"tampered aad": func() ([]byte, error) {
			return Decrypt(key, iv, ciphertext, []byte("HDR"), tag)
		},
		"truncated tag": func() ([]byte, error) {
			return Decrypt(key, iv, ciphertext, []byte("hdr"), tag[:8])
		},
		"wrong key": func() ([]byte, error) {
			k := make([]byte, 32)
			k[0] = 1
			return Decrypt(k, iv, ciphertext, []byte("hdr"), tag)
		},
	}
	for name, run := range cases {
		plaintext, err := run()
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("%s: error = %v, want ErrAuthentication", name, err)
		}
		if plaintext != nil {
			t.Errorf("%s: plaintext released on failure", name)
		}
	}
}

func TestInvalidInputs(t *testing.T) {
	if _, _, err := Encrypt(make([]byte, 40), make([]byte, 16), nil, nil); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("bad key error = %v, want ErrInvalidKeyLength", err)
	}
	if _, _, err := Encrypt(make([]byte, 32), make([]byte, 12), nil, nil); !errors.Is(err, ErrInvalidIVLength) {
		t.Errorf("bad IV error = %v, want ErrInvalidIVLength", err)
	}
	if _, err := Decrypt(make([]byte, 32), make([]byte, 16), make([]byte, 17), nil, make([]byte, 16)); !errors.Is(err, ErrInvalidPlaintext) {
		t.Errorf("ragged ciphertext error = %v, want ErrInvalidPlaintext", err)
	}
}
