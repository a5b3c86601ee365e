// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package subtle provides constant-time byte sequence comparison.
package subtle

import "crypto/subtle"

// AreEqual reports whether a and b contain the same bytes. The comparison
// runs in constant time with respect to the content: every byte is examined
// and differences are accumulated, so timing does not reveal the position of
// the first mismatch.
//
// A length mismatch returns false immediately. Lengths of MACs and
// signatures are fixed by the algorithm and already public, so the
// short-circuit leaks nothing.
func AreEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
