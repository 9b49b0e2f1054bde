// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ubilog/ubilog/common/hash"
)

// AssertError identifies an arithmetic contract violation. These are bugs in
// the caller and are raised with panic, never returned.
type AssertError string

func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

const (
	// ScaleShift is the number of fractional bits of a retarget scale.
	ScaleShift = 32

	// compressShift is the width of the exponent part of a compressed nat.
	compressShift = 16

	// compressMantissa is the number of significant bits kept by CompressNat.
	compressMantissa = 48
)

var (
	// bigOne is 1 represented as a big.Int.  It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// OneLsh256 is 1 shifted left 256 bits.  It is defined here to avoid
	// the overhead of creating it multiple times.
	OneLsh256 = new(big.Int).Lsh(bigOne, 256)

	// ScaleOne is the retarget scale that leaves the difficulty unchanged.
	ScaleOne = new(big.Int).Lsh(bigOne, ScaleShift)

	minScale = new(big.Int).Rsh(ScaleOne, 2)
	maxScale = new(big.Int).Lsh(ScaleOne, 2)
)

// HashToBig converts a hash.Hash into a big.Int that can be used to
// perform math comparisons.
func HashToBig(hash *hash.Hash) *big.Int {
	// A Hash is in little-endian, but the big package wants the bytes in
	// big-endian, so reverse them.
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}

	return new(big.Int).SetBytes(buf[:])
}

// BigToHash is the inverse of HashToBig. Values that do not fit in 256 bits
// are a contract violation.
func BigToHash(v *big.Int) hash.Hash {
	checkRange(v)
	var h hash.Hash
	b := v.Bytes()
	for i := range b {
		h[i] = b[len(b)-1-i]
	}
	return h
}

func checkRange(v *big.Int) {
	if v.Sign() < 0 || v.Cmp(OneLsh256) >= 0 {
		panic(AssertError(fmt.Sprintf("value %x is outside [0, 2^256)", v)))
	}
}

// Difficulty returns the expected number of hashes needed to find a digest of
// value v or larger, 2^256 / (2^256 - v). The zero value is the genesis
// sentinel and has difficulty zero.
func Difficulty(v *big.Int) *big.Int {
	checkRange(v)
	if v.Sign() == 0 {
		return new(big.Int)
	}
	return TargetDifficulty(v)
}

// TargetDifficulty is Difficulty without the zero special case. The zero
// target is the easiest one and accepts every hash, so its difficulty is one.
func TargetDifficulty(target *big.Int) *big.Int {
	checkRange(target)
	denom := new(big.Int).Sub(OneLsh256, target)
	return denom.Div(OneLsh256, denom)
}

// Target returns the smallest digest value a block must reach to be worth d
// hashes, 2^256 - 2^256 / d.
func Target(d *big.Int) *big.Int {
	if d.Sign() <= 0 {
		panic(AssertError(fmt.Sprintf("target of non-positive difficulty %v", d)))
	}
	t := new(big.Int).Div(OneLsh256, d)
	return t.Sub(OneLsh256, t)
}

// NextTarget scales the difficulty implied by lastTarget by scale/2^32,
// rounding up, and converts the result back to a target.
//
//	NextTarget(t, ScaleOne/2) halves the difficulty
//	NextTarget(t, ScaleOne)   keeps it
//	NextTarget(t, ScaleOne*2) doubles it
func NextTarget(lastTarget, scale *big.Int) *big.Int {
	if scale.Sign() <= 0 {
		panic(AssertError(fmt.Sprintf("non-positive retarget scale %v", scale)))
	}
	nd := new(big.Int).Mul(TargetDifficulty(lastTarget), scale)
	nd.Sub(nd, bigOne)
	nd.Rsh(nd, ScaleShift)
	nd.Add(nd, bigOne)
	return Target(nd)
}

// HashWork is the work a block hash adds to its chain.
func HashWork(h hash.Hash) *big.Int {
	if h.IsZero() {
		return new(big.Int)
	}
	return Difficulty(HashToBig(&h))
}

// CheckWork reports whether h meets target. Larger digests carry more work.
func CheckWork(h hash.Hash, target *big.Int) bool {
	return HashToBig(&h).Cmp(target) >= 0
}

// CalcScale returns the retarget scale that moves a period that took actual
// towards expected. The result is clamped to a factor of four either way.
func CalcScale(expected, actual time.Duration) *big.Int {
	if actual < time.Millisecond {
		actual = time.Millisecond
	}
	s := new(big.Int).Mul(ScaleOne, big.NewInt(expected.Milliseconds()))
	s.Div(s, big.NewInt(actual.Milliseconds()))
	if s.Cmp(minScale) < 0 {
		return new(big.Int).Set(minScale)
	}
	if s.Cmp(maxScale) > 0 {
		return new(big.Int).Set(maxScale)
	}
	return s
}

// CompressNat packs n into 64 bits, keeping its 48 most significant bits in
// the high part and the number of dropped low bits in the low 16 bits.
func CompressNat(n *big.Int) uint64 {
	drop := n.BitLen() - compressMantissa
	if drop < 0 {
		drop = 0
	}
	m := new(big.Int).Rsh(n, uint(drop))
	return m.Uint64()<<compressShift | uint64(drop)
}

// DecompressNat reverses CompressNat. Dropped bits come back as zeros.
func DecompressNat(pack uint64) *big.Int {
	drop := uint(pack & (1<<compressShift - 1))
	m := new(big.Int).SetUint64(pack >> compressShift)
	return m.Lsh(m, drop)
}
