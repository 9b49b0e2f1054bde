// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blkmgr

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
	l "github.com/ubilog/ubilog/log"
)

// handleMessage dispatches one message from a peer.
func (b *BlockManager) handleMessage(from *types.NetAddress, msg message.Message) {
	switch m := msg.(type) {
	case *message.MsgPutPeers:
		b.handlePutPeers(m)
	case *message.MsgPutSlice:
		b.handlePutSlice(m)
	case *message.MsgPutBlock:
		b.learnSender(from)
		b.processBlock(from, &m.Block)
	case *message.MsgAskBlock:
		b.handleAskBlock(from, m)
	default:
		log.Warn("Unhandled message", "from", from, "cmd", msg.Command())
	}
}

// learnSender adds the sender of a block to the known addresses while the
// address manager is short of them. Only block gossip counts, so one-off
// clients asking for blocks or sending slices are not remembered.
func (b *BlockManager) learnSender(from *types.NetAddress) {
	if from == nil || !b.cfg.AddrManager.NeedMoreAddresses() {
		return
	}
	log.Trace("Learning peer from block gossip", "addr", from)
	b.cfg.AddrManager.AddAddress(from)
}

func (b *BlockManager) handlePutPeers(msg *message.MsgPutPeers) {
	log.Debug("Received peers", "count", len(msg.Peers))
	b.cfg.AddrManager.AddAddresses(msg.Peers)
}

// handlePutSlice ranks the slice by the work of its own hash.
func (b *BlockManager) handlePutSlice(msg *message.MsgPutSlice) {
	slice := msg.Slice
	work := pow.HashWork(slice.Hash())
	b.cfg.SlicePool.Submit(&slice, work)
	slicesSubmitted.Inc(1)
	log.Debug("Received slice", "bits", slice.BitLen(), "work", work)
}

// handleAskBlock answers with the block when it is accepted. Unknown hashes
// are ignored.
func (b *BlockManager) handleAskBlock(from *types.NetAddress, msg *message.MsgAskBlock) {
	block, err := b.chain.BlockByHash(msg.Hash)
	if err != nil {
		log.Trace("Asked for unknown block", "hash", msg.Hash, "from", from)
		return
	}
	b.send(from, message.NewMsgPutBlock(block))
}

// processBlock inserts a block from a peer, or a local block when from is
// nil, and follows up on the outcome.
func (b *BlockManager) processBlock(from *types.NetAddress, block *types.Block) (*blockchain.InsertOutcome, error) {
	log.Trace("Processing block", "from", from, "block",
		l.NewLogClosure(func() string { return spew.Sdump(block) }))

	outcome, err := b.chain.ProcessBlock(block, blockchain.BFNone)
	if err != nil {
		blocksRejected.Inc(1)
		if _, ok := err.(blockchain.RuleError); ok {
			log.Debug("Rejected block", "hash", block.BlockHash(), "from", from, "err", err)
		} else {
			log.Error("Failed to process block", "hash", block.BlockHash(), "err", err)
		}
		return outcome, err
	}

	switch outcome.Status {
	case blockchain.StatusDuplicate:
		blocksDuplicate.Inc(1)

	case blockchain.StatusMissingAncestor:
		blocksOrphaned.Inc(1)
		b.requested.Remove(outcome.Hash)
		b.askMissing(from, outcome.Missing)

	case blockchain.StatusAccepted:
		blocksAccepted.Inc(int64(len(outcome.Accepted)))
		for _, h := range outcome.Accepted {
			b.requested.Remove(h)
		}
		for _, h := range outcome.Rejected {
			b.requested.Remove(h)
		}
		if outcome.NewTip != nil {
			tipHeight.Update(int64(outcome.NewTip.Height))
			if from != nil {
				b.progress.LogBlockHeight(outcome.NewTip.Height, block)
			}
			log.Debug("New tip", "height", outcome.NewTip.Height,
				"hash", outcome.NewTip.Hash)
		}
	}
	return outcome, nil
}

// askMissing asks the sender of an orphan for its parent, the first time
// the parent is found missing. The request job repeats the ask to every
// peer until it arrives.
func (b *BlockManager) askMissing(from *types.NetAddress, missing hash.Hash) {
	if b.chain.IsOrphan(missing) || !b.requested.Add(missing) {
		return
	}
	if from != nil {
		b.send(from, message.NewMsgAskBlock(missing))
	}
}

func (b *BlockManager) send(to *types.NetAddress, msg message.Message) {
	if err := b.cfg.Transport.Send(to, msg); err != nil {
		log.Debug("Failed to send message", "to", to, "cmd", msg.Command(), "err", err)
	}
}

// broadcast sends msg to every known peer.
func (b *BlockManager) broadcast(msg message.Message) {
	for _, addr := range b.cfg.AddrManager.Addresses() {
		b.send(addr, msg)
	}
}
