// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blkmgr

import (
	"math/big"
	"time"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	l "github.com/ubilog/ubilog/log"
)

// displayChainLines is how many rows of the chain the trace dump shows.
const displayChainLines = 16

// gossipTip pushes the tip block to every peer.
func (b *BlockManager) gossipTip() {
	tip := b.chain.Tip()
	if tip.Height == 0 {
		return
	}
	block, err := b.chain.BlockByHash(tip.Hash)
	if err != nil {
		log.Error("Tip block missing", "hash", tip.Hash, "err", err)
		return
	}
	log.Trace("Gossiping tip", "height", tip.Height, "hash", tip.Hash)
	b.broadcast(message.NewMsgPutBlock(block))
}

// gossipPeers shares the known addresses with every peer.
func (b *BlockManager) gossipPeers() {
	addrs := b.cfg.AddrManager.Addresses()
	if len(addrs) == 0 {
		return
	}
	if len(addrs) > message.MaxPeersPerMsg {
		addrs = addrs[:message.MaxPeersPerMsg]
	}
	b.broadcast(message.NewMsgPutPeers(addrs...))
}

// requestPending asks every peer for every ancestor orphans wait on.
func (b *BlockManager) requestPending() {
	for _, h := range b.chain.PendingParents() {
		b.requested.Add(h)
		log.Trace("Requesting pending block", "hash", h)
		b.broadcast(message.NewMsgAskBlock(h))
	}
}

// saveChain writes the main chain to the database. Only the part that
// differs from the last save is written, and heights beyond the new tip are
// removed.
func (b *BlockManager) saveChain() error {
	if b.cfg.DB == nil {
		return nil
	}
	chain := b.chain.MainChain()

	common := 0
	for common < len(chain) && common < len(b.saved) &&
		chain[common].BlockHash() == b.saved[common] {
		common++
	}
	if common == len(chain) && common == len(b.saved) {
		return nil
	}

	if len(b.saved) > len(chain) {
		if err := b.cfg.DB.Truncate(uint64(len(chain)) + 1); err != nil {
			return err
		}
	}
	saved := append([]hash.Hash{}, b.saved[:common]...)
	for i := common; i < len(chain); i++ {
		if err := b.cfg.DB.PutBlock(uint64(i)+1, chain[i]); err != nil {
			b.saved = saved
			return err
		}
		saved = append(saved, chain[i].BlockHash())
	}
	b.saved = saved
	log.Debug("Saved chain", "height", len(chain), "written", len(chain)-common)
	return nil
}

// loadChain replays the database through normal validation. Blocks the
// chain refuses are logged and skipped.
func (b *BlockManager) loadChain() error {
	if b.cfg.DB == nil {
		return nil
	}
	var loaded, failed int
	err := b.cfg.DB.ForEachBlock(func(height uint64, block *types.Block) error {
		_, err := b.chain.ProcessBlock(block, blockchain.BFNone)
		if err != nil {
			failed++
			log.Warn("Stored block refused", "height", height, "err", err)
			return nil
		}
		if height == uint64(len(b.saved))+1 {
			b.saved = append(b.saved, block.BlockHash())
		}
		b.progress.LogBlockHeight(height, block)
		loaded++
		return nil
	})
	if err != nil {
		return err
	}
	tip := b.chain.Tip()
	tipHeight.Update(int64(tip.Height))
	log.Info("Loaded block database", "blocks", loaded, "refused", failed,
		"tip", tip)
	return nil
}

// nodeStatus is a summary of the node for display.
type nodeStatus struct {
	Time        time.Time
	Tip         blockchain.Tip
	Difficulty  *big.Int
	HashRate    *big.Int // Network hashes per second implied by Difficulty.
	Peers       int
	Blocks      int
	Orphans     int
	Pending     int
	Requested   int
	Slices      int
	Mined       uint64
	SavedHeight int
}

// status collects the node summary. It runs on the handler goroutine.
func (b *BlockManager) status() *nodeStatus {
	best := b.chain.BestSnapshot()
	rate := new(big.Int)
	perBlock := b.chain.ChainParams().TargetTimePerBlock
	if ms := perBlock.Milliseconds(); ms > 0 {
		rate.Mul(best.Difficulty, big.NewInt(1000))
		rate.Div(rate, big.NewInt(ms))
	}
	return &nodeStatus{
		Time:        b.cfg.Clock.Now().UTC(),
		Tip:         best.Tip,
		Difficulty:  best.Difficulty,
		HashRate:    rate,
		Peers:       b.cfg.AddrManager.NumAddresses(),
		Blocks:      best.NumBlocks,
		Orphans:     best.NumOrphans,
		Pending:     len(b.chain.PendingParents()),
		Requested:   b.requested.Cardinality(),
		Slices:      b.cfg.SlicePool.Len(),
		Mined:       b.mined,
		SavedHeight: len(b.saved),
	}
}

// displayStatus logs the status line and, at trace level, the chain.
func (b *BlockManager) displayStatus() {
	s := b.status()
	log.Info("Status", "time", s.Time.Format(time.RFC3339), "height", s.Tip.Height,
		"tip", s.Tip.Hash, "difficulty", s.Difficulty, "hashrate", s.HashRate,
		"peers", s.Peers, "blocks", s.Blocks, "orphans", s.Orphans,
		"pending", s.Pending, "slices", s.Slices, "mined", s.Mined)
	log.Trace("Main chain", "chain", l.NewLogClosure(func() string {
		return "\n" + ShowChain(b.chain.MainChain(), displayChainLines)
	}))
}
