package pow

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ubilog/ubilog/common/hash"
)

func drawNat(t *rapid.T, label string) *big.Int {
	b := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, label)
	return new(big.Int).SetBytes(b)
}

func TestHashToBig(t *testing.T) {
	var h hash.Hash
	h[0] = 0x02
	h[1] = 0x01
	assert.Equal(t, big.NewInt(0x0102), HashToBig(&h))
	assert.Equal(t, h, BigToHash(big.NewInt(0x0102)))
	assert.Equal(t, hash.ZeroHash, BigToHash(new(big.Int)))
}

func TestDifficultyTarget(t *testing.T) {
	assert.Equal(t, int64(0), Difficulty(new(big.Int)).Int64())
	assert.Equal(t, int64(1), TargetDifficulty(new(big.Int)).Int64())

	// half of the hash space qualifies: two hashes per block
	half := new(big.Int).Rsh(OneLsh256, 1)
	assert.Equal(t, int64(2), Difficulty(half).Int64())
	assert.Equal(t, half, Target(big.NewInt(2)))

	assert.Equal(t, int64(0), Target(big.NewInt(1)).Int64())
	assert.Equal(t, new(big.Int).Sub(OneLsh256, new(big.Int).Lsh(bigOne, 248)), Target(big.NewInt(256)))

	max := new(big.Int).Sub(OneLsh256, bigOne)
	assert.Equal(t, OneLsh256, Difficulty(max))
}

func TestContractViolations(t *testing.T) {
	assert.Panics(t, func() { Target(new(big.Int)) })
	assert.Panics(t, func() { Target(big.NewInt(-3)) })
	assert.Panics(t, func() { Difficulty(OneLsh256) })
	assert.Panics(t, func() { Difficulty(big.NewInt(-1)) })
	assert.Panics(t, func() { NextTarget(Target(big.NewInt(4)), new(big.Int)) })
	assert.Panics(t, func() { BigToHash(OneLsh256) })
}

// Target never overshoots the digest it was derived from.
func TestTargetOfDifficultyBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := drawNat(t, "v")
		if v.Sign() == 0 {
			return
		}
		got := Target(Difficulty(v))
		require.True(t, got.Cmp(v) <= 0, "target %x above %x", got, v)
	})
}

// Difficulty and Target are exact inverses for realistic difficulties.
func TestDifficultyOfTargetRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := new(big.Int).SetUint64(rapid.Uint64Range(1, 1<<62).Draw(t, "d"))
		require.Equal(t, 0, TargetDifficulty(Target(d)).Cmp(d))
	})
}

func TestNextTargetScale(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.Uint64Range(1, 1<<40).Draw(t, "d")
		last := Target(new(big.Int).SetUint64(d))

		same := TargetDifficulty(NextTarget(last, ScaleOne))
		require.Equal(t, d, same.Uint64())

		halved := TargetDifficulty(NextTarget(last, new(big.Int).Rsh(ScaleOne, 1)))
		require.Equal(t, (d+1)/2, halved.Uint64())

		doubled := TargetDifficulty(NextTarget(last, new(big.Int).Lsh(ScaleOne, 1)))
		require.Equal(t, 2*d, doubled.Uint64())
	})
}

func TestNextTargetNeverZeroDifficulty(t *testing.T) {
	// the easiest target scaled down stays at difficulty one
	next := NextTarget(new(big.Int), big.NewInt(1))
	assert.Equal(t, int64(1), TargetDifficulty(next).Int64())
}

func TestHashWork(t *testing.T) {
	assert.Equal(t, int64(0), HashWork(hash.ZeroHash).Int64())
	rapid.Check(t, func(t *rapid.T) {
		v := drawNat(t, "v")
		if v.Sign() == 0 {
			return
		}
		require.Equal(t, 1, HashWork(BigToHash(v)).Sign())
	})
}

func TestCheckWork(t *testing.T) {
	target := Target(big.NewInt(2))
	above := BigToHash(new(big.Int).Add(target, bigOne))
	below := BigToHash(new(big.Int).Sub(target, bigOne))
	assert.True(t, CheckWork(above, target))
	assert.True(t, CheckWork(BigToHash(target), target))
	assert.False(t, CheckWork(below, target))
	assert.True(t, CheckWork(hash.ZeroHash, new(big.Int)))
}

func TestCalcScale(t *testing.T) {
	period := 20 * time.Second
	assert.Equal(t, ScaleOne, CalcScale(period, period))
	assert.Equal(t, new(big.Int).Lsh(ScaleOne, 1), CalcScale(period, period/2))
	assert.Equal(t, new(big.Int).Rsh(ScaleOne, 1), CalcScale(period, period*2))
	assert.Equal(t, maxScale, CalcScale(period, 0))
	assert.Equal(t, minScale, CalcScale(period, period*100))
}

func TestCompressNat(t *testing.T) {
	assert.Equal(t, uint64(1000)<<16, CompressNat(big.NewInt(1000)))
	assert.Equal(t, int64(1000), DecompressNat(CompressNat(big.NewInt(1000))).Int64())

	rapid.Check(t, func(t *rapid.T) {
		n := drawNat(t, "n")
		back := DecompressNat(CompressNat(n))
		require.True(t, back.Cmp(n) <= 0)
		// only the bits below the 48-bit mantissa are lost
		drop := n.BitLen() - compressMantissa
		if drop <= 0 {
			require.Equal(t, 0, back.Cmp(n))
			return
		}
		diff := new(big.Int).Sub(n, back)
		require.True(t, diff.BitLen() <= drop)
	})
}
