// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
)

// orphanBlock represents a block that we don't yet have the parent for.
type orphanBlock struct {
	block    *types.Block
	hash     hash.Hash
	flags    BehaviorFlags
	received time.Time
}

// IsOrphan returns whether the passed hash is currently waiting for its
// parent.
//
// This function is safe for concurrent access.
func (b *BlockChain) IsOrphan(h hash.Hash) bool {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	_, exists := b.orphans[h]
	return exists
}

// PendingParents returns the hashes that orphans are waiting for and which
// are neither accepted nor orphans themselves. These are the blocks worth
// asking peers for.
//
// This function is safe for concurrent access.
func (b *BlockChain) PendingParents() []hash.Hash {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()

	result := make([]hash.Hash, 0, len(b.prevOrphans))
	for parent := range b.prevOrphans {
		if b.index.HaveBlock(parent) {
			continue
		}
		if _, ok := b.orphans[parent]; ok {
			continue
		}
		result = append(result, parent)
	}
	return result
}

// OrphanCount returns the number of blocks waiting for their parent.
func (b *BlockChain) OrphanCount() int {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	return len(b.orphans)
}

// isRejected reports whether h was seen but is neither accepted nor waiting,
// which only happens when it broke a rule or descends from such a block.
//
// This function MUST be called with the chain state lock held (for reads).
func (b *BlockChain) isRejected(h hash.Hash) bool {
	if _, ok := b.seen[h]; !ok {
		return false
	}
	if _, ok := b.orphans[h]; ok {
		return false
	}
	return !b.index.HaveBlock(h)
}

// expireOrphans forgets orphans that waited longer than the expiry. They are
// removed from the seen set too, so a later delivery is processed again, and
// orphans that waited on them become pending parents to ask for.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) expireOrphans() {
	if b.orphanExpiry <= 0 {
		return
	}
	now := b.clock.Now()
	for h, ob := range b.orphans {
		if now.Sub(ob.received) <= b.orphanExpiry {
			continue
		}
		b.removeOrphanBlock(ob)
		delete(b.seen, h)
		log.Debug("Expired orphan block", "hash", h, "parent", ob.block.Prev)
	}
}

// removeOrphanBlock removes the passed orphan block from the orphan pool and
// previous orphan index.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) removeOrphanBlock(orphan *orphanBlock) {
	delete(b.orphans, orphan.hash)

	prevHash := orphan.block.Prev
	orphans := b.prevOrphans[prevHash]
	for i := 0; i < len(orphans); i++ {
		if orphans[i].hash == orphan.hash {
			copy(orphans[i:], orphans[i+1:])
			orphans[len(orphans)-1] = nil
			orphans = orphans[:len(orphans)-1]
			i--
		}
	}
	if len(orphans) == 0 {
		delete(b.prevOrphans, prevHash)
	} else {
		b.prevOrphans[prevHash] = orphans
	}
}

func (b *BlockChain) orphanLimitReached() bool {
	return b.maxOrphans > 0 && len(b.orphans) >= b.maxOrphans
}

// addOrphanBlock adds the passed block (which is already determined to be
// an orphan prior calling this function) to the orphan pool, indexed by the
// parent it waits for.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) addOrphanBlock(block *types.Block, h hash.Hash, flags BehaviorFlags) {
	ob := &orphanBlock{
		block:    block,
		hash:     h,
		flags:    flags,
		received: b.clock.Now(),
	}
	b.orphans[h] = ob
	b.prevOrphans[block.Prev] = append(b.prevOrphans[block.Prev], ob)
}

// takeOrphans removes and returns the orphans waiting for parent.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) takeOrphans(parent hash.Hash) []*orphanBlock {
	obs := b.prevOrphans[parent]
	if len(obs) == 0 {
		return nil
	}
	delete(b.prevOrphans, parent)
	for _, ob := range obs {
		delete(b.orphans, ob.hash)
	}
	return obs
}

// dropOrphanSubtree removes every orphan that descends from h and returns
// their hashes. It is used when h itself was rejected.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) dropOrphanSubtree(h hash.Hash) []hash.Hash {
	var dropped []hash.Hash
	queue := []hash.Hash{h}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ob := range b.takeOrphans(cur) {
			dropped = append(dropped, ob.hash)
			queue = append(queue, ob.hash)
		}
	}
	return dropped
}
