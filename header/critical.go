// jose-go: JSON Object Signing and Encryption primitives
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

// CritChecker enforces the critical-parameter policy of RFC 7515 Section
// 4.1.11: every extension parameter a sender marks critical must either be
// understood or be explicitly whitelisted by the caller. It is the gate that
// keeps maliciously introduced header extensions from being silently
// skipped, and must run before any signature or decryption trust decision.
//
// The ignored-name set is mutable configuration owned by one caller; wrap
// the checker in a lock if it is shared across goroutines.
type CritChecker struct {
	ignored map[string]struct{}
}

// NewCritChecker creates a checker with an empty ignored-name set.
func NewCritChecker() *CritChecker {
	return &CritChecker{ignored: make(map[string]struct{})}
}

// Ignore whitelists a critical extension name as safe to skip.
func (c *CritChecker) Ignore(names ...string) {
	for _, name := range names {
		c.ignored[name] = struct{}{}
	}
}

// HeaderPasses reports whether the header's critical-parameter declaration
// is acceptable: either the header declares no crit set, or every declared
// name is whitelisted. A malformed crit declaration never passes.
//
// Registered parameter names must not appear in crit (RFC 7515 Section
// 4.1.11), so any engine-understood name showing up there is itself a
// reason to reject.
func (c *CritChecker) HeaderPasses(h *Header) bool {
	names, err := h.GetCritical()
	if err != nil {
		return false
	}
	for _, name := range names {
		if _, ok := c.ignored[name]; !ok {
			return false
		}
	}
	return true
}
