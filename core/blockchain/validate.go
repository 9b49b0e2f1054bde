// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"time"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
)

// timeMillis converts t to the block time unit.
func timeMillis(t time.Time) uint64 {
	ms := t.UnixNano() / int64(time.Millisecond)
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

// checkBlockSanity performs the checks that do not depend on the parent.
func (b *BlockChain) checkBlockSanity(block *types.Block, flags BehaviorFlags) error {
	if flags&BFFastAdd == BFFastAdd || b.maxFutureDrift <= 0 {
		return nil
	}
	maxTime := timeMillis(b.clock.Now().Add(b.maxFutureDrift))
	if block.Time > maxTime {
		str := fmt.Sprintf("block timestamp of %d is too far in the "+
			"future (max %d)", block.Time, maxTime)
		return ruleError(ErrTimeTooNew, str)
	}
	return nil
}

// checkBlockContext performs the checks that need the accepted parent: the
// block must advance time and carry enough work for the parent's target.
func checkBlockContext(block *types.Block, h hash.Hash, parent *blockNode, flags BehaviorFlags) error {
	if flags&BFFastAdd == BFFastAdd {
		return nil
	}
	if block.Time <= parent.block.Time {
		str := fmt.Sprintf("block timestamp of %d is not after parent "+
			"timestamp %d", block.Time, parent.block.Time)
		return ruleError(ErrTimeTooOld, str)
	}
	if flags&BFNoPoWCheck != BFNoPoWCheck && !pow.CheckWork(h, parent.target) {
		str := fmt.Sprintf("block hash of %v is lower than required "+
			"target of %064x", h, parent.target)
		return ruleError(ErrInsufficientWork, str)
	}
	return nil
}
