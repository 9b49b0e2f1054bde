// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
)

// ChainView gives a retarget policy read access to accepted blocks. It is
// only valid for the duration of the NextTarget call.
type ChainView interface {
	// Block returns the accepted block with the given hash or nil.
	Block(h hash.Hash) *types.Block

	// Height returns the height of an accepted block.
	Height(h hash.Hash) (uint64, bool)

	// Target returns the target children of an accepted block must meet.
	Target(h hash.Hash) *big.Int

	// RelativeAncestor returns the accepted block distance blocks before
	// the block h, or nil when there is no such block.
	RelativeAncestor(h hash.Hash, distance uint64) *types.Block
}

// RetargetPolicy computes the target children of a newly accepted block must
// meet, given its accepted parent.
type RetargetPolicy interface {
	NextTarget(view ChainView, parent hash.Hash, block *types.Block) *big.Int
}

// FixedTarget never changes the target.
type FixedTarget struct{}

// NextTarget returns the parent target.
func (FixedTarget) NextTarget(view ChainView, parent hash.Hash, block *types.Block) *big.Int {
	return view.Target(parent)
}

// PeriodRetarget rescales the difficulty every BlocksPerPeriod blocks so that
// a period lasts TimePerPeriod. Between boundaries the target is inherited.
type PeriodRetarget struct {
	BlocksPerPeriod uint64
	TimePerPeriod   time.Duration
}

// NextTarget computes the target of block. At a period boundary the elapsed
// time is measured from the block BlocksPerPeriod blocks back to the new
// block. The genesis sentinel carries no real time, so the first period is
// measured from the block at height 1 and the expected time shrinks by the
// missing interval.
func (p PeriodRetarget) NextTarget(view ChainView, parent hash.Hash, block *types.Block) *big.Int {
	last := view.Target(parent)
	parentHeight, _ := view.Height(parent)
	height := parentHeight + 1
	if p.BlocksPerPeriod == 0 || height%p.BlocksPerPeriod != 0 || parentHeight == 0 {
		return last
	}

	distance := p.BlocksPerPeriod - 1
	if distance > parentHeight-1 {
		distance = parentHeight - 1
	}
	checkpoint := view.RelativeAncestor(parent, distance)
	if checkpoint == nil {
		return last
	}
	intervals := distance + 1
	expected := time.Duration(uint64(p.TimePerPeriod) * intervals / p.BlocksPerPeriod)

	var elapsed time.Duration
	if block.Time > checkpoint.Time {
		elapsed = time.Duration(block.Time-checkpoint.Time) * time.Millisecond
	}
	scale := pow.CalcScale(expected, elapsed)
	next := pow.NextTarget(last, scale)

	log.Debug("Retarget", "height", height, "elapsed", elapsed, "expected", expected,
		"from", pow.TargetDifficulty(last), "to", pow.TargetDifficulty(next))
	return next
}

// blockWork is the work a block with hash h adds to its chain.
func blockWork(h hash.Hash) *big.Int {
	return pow.HashWork(h)
}

// checkTargetRange panics when a retarget policy produces a target outside
// [0, 2^256).
func checkTargetRange(t *big.Int) {
	if t == nil || t.Sign() < 0 || t.Cmp(pow.OneLsh256) >= 0 {
		panic(AssertError(fmt.Sprintf("retarget produced invalid target %v", t)))
	}
}
