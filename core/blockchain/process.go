// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/golang-collections/collections/stack"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
)

// BehaviorFlags is a bitmask defining tweaks to the normal behavior when
// performing chain processing and consensus rules checks.
type BehaviorFlags uint32

const (
	// BFFastAdd may be set to indicate that the block comes from a trusted
	// source, such as the local database, and the time and work checks can
	// be avoided.
	BFFastAdd BehaviorFlags = 1 << iota

	// BFNoPoWCheck may be set to indicate the proof of work check which
	// ensures a block hashes to a value at or above the required target will
	// not be performed.
	BFNoPoWCheck

	// BFNone is a convenience value to specifically indicate no flags.
	BFNone BehaviorFlags = 0
)

// InsertStatus is the result kind of ProcessBlock.
type InsertStatus int

const (
	// StatusAccepted means the block, and possibly waiting descendants,
	// joined the block tree.
	StatusAccepted InsertStatus = iota

	// StatusDuplicate means the block was seen before. Nothing changed.
	StatusDuplicate

	// StatusMissingAncestor means the parent is unknown and the block is
	// waiting for it. The caller should ask peers for Missing.
	StatusMissingAncestor

	// StatusRejected means the block broke a rule.
	StatusRejected
)

var insertStatusStrings = map[InsertStatus]string{
	StatusAccepted:        "Accepted",
	StatusDuplicate:       "Duplicate",
	StatusMissingAncestor: "MissingAncestor",
	StatusRejected:        "Rejected",
}

func (s InsertStatus) String() string {
	if str, ok := insertStatusStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("Unknown InsertStatus (%d)", int(s))
}

// InsertOutcome reports what ProcessBlock did.
type InsertOutcome struct {
	Status InsertStatus

	// Hash of the processed block.
	Hash hash.Hash

	// Missing is the unknown parent for StatusMissingAncestor.
	Missing hash.Hash

	// Accepted lists the block and every orphan that cascaded in after it,
	// in acceptance order.
	Accepted []hash.Hash

	// Rejected lists cascaded orphans that broke a rule, together with the
	// orphans that waited on them.
	Rejected []hash.Hash

	// NewTip is set when the best block changed.
	NewTip *Tip
}

// ProcessBlock is the main workhorse for handling insertion of new blocks into
// the block chain.  It includes functionality such as rejecting duplicate
// blocks, ensuring blocks follow all rules, orphan handling, and insertion into
// the block tree along with best chain selection.
//
// A block whose parent is unknown is buffered and reported with
// StatusMissingAncestor, which is not an error. Once its parent is accepted
// the buffered block is accepted in the same call.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessBlock(block *types.Block, flags BehaviorFlags) (*InsertOutcome, error) {
	outcome, err := b.processBlock(block, flags)
	b.flushNotifications()
	return outcome, err
}

func (b *BlockChain) processBlock(block *types.Block, flags BehaviorFlags) (*InsertOutcome, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	blockHash := block.BlockHash()
	outcome := &InsertOutcome{Hash: blockHash}
	log.Trace("Processing block", "hash", blockHash)

	// The block must not already be accepted, waiting or rejected.
	if _, exists := b.seen[blockHash]; exists {
		log.Trace("Duplicate block", "hash", blockHash)
		outcome.Status = StatusDuplicate
		return outcome, nil
	}

	oldTip := b.tip

	if blockHash.IsZero() {
		b.seen[blockHash] = struct{}{}
		b.acceptGenesis(block)
		outcome.Status = StatusAccepted
		outcome.Accepted = append(outcome.Accepted, blockHash)
	} else {
		// Blocks from the future are refused without being remembered so
		// they can be delivered again later.
		if err := b.checkBlockSanity(block, flags); err != nil {
			outcome.Status = StatusRejected
			return outcome, err
		}

		parent := b.index.lookupNode(block.Prev)
		if parent == nil && b.isRejected(block.Prev) {
			b.seen[blockHash] = struct{}{}
			outcome.Status = StatusRejected
			outcome.Rejected = append(outcome.Rejected, blockHash)
			str := fmt.Sprintf("parent %v was rejected", block.Prev)
			return outcome, ruleError(ErrInvalidAncestor, str)
		}
		if parent == nil {
			b.expireOrphans()
			if b.orphanLimitReached() {
				str := fmt.Sprintf("orphan pool is full (%d blocks)", len(b.orphans))
				outcome.Status = StatusRejected
				return outcome, ruleError(ErrOrphanLimit, str)
			}
			b.seen[blockHash] = struct{}{}
			b.addOrphanBlock(block, blockHash, flags)
			b.sendNotification(OrphanAdded, &OrphanNotifyData{
				Block:   block,
				Hash:    blockHash,
				Missing: block.Prev,
			})
			b.updateBestState()
			log.Debug("Adding orphan block", "hash", blockHash, "parent", block.Prev)

			outcome.Status = StatusMissingAncestor
			outcome.Missing = block.Prev
			return outcome, nil
		}

		b.seen[blockHash] = struct{}{}
		if err := b.connectBlock(block, blockHash, parent, flags); err != nil {
			outcome.Status = StatusRejected
			outcome.Rejected = append([]hash.Hash{blockHash}, b.dropOrphanSubtree(blockHash)...)
			b.updateBestState()
			return outcome, err
		}
		outcome.Status = StatusAccepted
		outcome.Accepted = append(outcome.Accepted, blockHash)
	}

	b.processOrphans(blockHash, outcome)

	if b.tip != oldTip {
		tip := Tip{Height: b.tip.height, Hash: b.tip.hash}
		outcome.NewTip = &tip
		b.sendNotification(TipChanged, tip)
		log.Debug("New tip", "height", tip.Height, "hash", tip.Hash,
			"work", b.tip.workSum)
	}
	b.updateBestState()
	return outcome, nil
}

// processOrphans accepts the orphans waiting for the passed block hash, then
// the orphans waiting for those, until there are no more. It works from an
// explicit stack so long orphan chains do not grow the call stack.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) processOrphans(h hash.Hash, outcome *InsertOutcome) {
	work := stack.New()
	work.Push(h)
	for work.Len() > 0 {
		parentHash := work.Pop().(hash.Hash)
		parent := b.index.lookupNode(parentHash)
		for _, ob := range b.takeOrphans(parentHash) {
			err := b.connectBlock(ob.block, ob.hash, parent, ob.flags)
			if err != nil {
				log.Debug("Rejected orphan", "hash", ob.hash, "err", err)
				outcome.Rejected = append(outcome.Rejected, ob.hash)
				outcome.Rejected = append(outcome.Rejected, b.dropOrphanSubtree(ob.hash)...)
				continue
			}
			outcome.Accepted = append(outcome.Accepted, ob.hash)
			work.Push(ob.hash)
		}
	}
}

// acceptGenesis records the sentinel genesis block as the root of the tree.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) acceptGenesis(block *types.Block) {
	target := b.params.InitialTarget()
	checkTargetRange(target)
	node := newBlockNode(block, hash.ZeroHash, nil, target)
	b.index.addNode(node)
	b.genesis = node
	if b.tip == nil {
		b.tip = node
	}
	b.sendNotification(BlockAccepted, &BlockAcceptedNotifyData{
		IsMainChainTipChange: b.tip == node,
		Block:                block,
		Hash:                 node.hash,
		Height:               0,
	})
	log.Debug("Accepted genesis block", "target", fmt.Sprintf("%064x", target))
}

// connectBlock validates the block against its accepted parent and, when it
// passes, adds it to the tree and moves the tip if it is now the heaviest
// block. Equal work keeps the current tip.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) connectBlock(block *types.Block, h hash.Hash, parent *blockNode, flags BehaviorFlags) error {
	if err := checkBlockContext(block, h, parent, flags); err != nil {
		return err
	}

	target := b.retarget.NextTarget(b.index, parent.hash, block)
	checkTargetRange(target)

	node := newBlockNode(block, h, parent, target)
	b.index.addNode(node)

	isTip := node.workSum.Cmp(b.tip.workSum) > 0
	if isTip {
		b.tip = node
	}
	b.sendNotification(BlockAccepted, &BlockAcceptedNotifyData{
		IsMainChainTipChange: isTip,
		Block:                block,
		Hash:                 h,
		Height:               node.height,
	})
	log.Debug("Accepted block", "hash", h, "height", node.height,
		"work", pow.CompressNat(node.workSum), "tip", isTip)
	return nil
}
