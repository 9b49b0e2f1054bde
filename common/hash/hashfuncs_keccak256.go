// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hash

import (
	"golang.org/x/crypto/sha3"
)

// HashKeccak256 calculates the legacy (pre-NIST) Keccak-256 of the
// concatenation of parts and returns the raw digest bytes as a Hash.
func HashKeccak256(parts ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var r Hash
	copy(r[:], h.Sum(nil))
	return r
}

// HashB calculates Keccak-256 of b and returns the resulting bytes.
func HashB(b []byte) []byte {
	h := HashKeccak256(b)
	return h[:]
}
