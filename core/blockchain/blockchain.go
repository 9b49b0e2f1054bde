// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
	"github.com/ubilog/ubilog/params"
)

// DefaultOrphanExpiry is how long an orphan waits for its parent before it
// is forgotten.
const DefaultOrphanExpiry = time.Hour

// Config is a descriptor which specifies the blockchain instance configuration.
type Config struct {
	// ChainParams identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	ChainParams *params.Params

	// Retarget computes the target of each new block. When nil a
	// PeriodRetarget built from ChainParams is used.
	Retarget RetargetPolicy

	// Clock is the time source used to reject blocks from the future.
	//
	// This field defaults to the system clock.
	Clock clock.Clock

	// MaxOrphans overrides ChainParams.MaxOrphans when positive.
	MaxOrphans int

	// OrphanExpiry is how long an orphan may wait for its parent. Zero
	// means DefaultOrphanExpiry, a negative value disables expiry.
	OrphanExpiry time.Duration

	// Notifications defines a callback to which notifications will be sent
	// when various events take place.  See the documentation for
	// Notification and NotificationType for details on the types and
	// contents of notifications.
	//
	// This field can be nil if the caller is not interested in receiving
	// notifications.
	Notifications NotificationCallback
}

// Tip names the best block.
type Tip struct {
	Height uint64
	Hash   hash.Hash
}

func (t Tip) String() string {
	return fmt.Sprintf("%d:%v", t.Height, t.Hash)
}

// BestState houses information about the current best block and other info
// related to the state of the main chain as it exists from the point of view
// of the current best block.
//
// The BestSnapshot method can be used to obtain access to this information
// in a concurrent safe manner and the data will not be changed out from under
// the caller when chain state changes occur as the function name implies.
// However, the returned snapshot must be treated as immutable since it is
// shared by all callers.
type BestState struct {
	Tip
	Work       *big.Int // Cumulative work of the best chain.
	Target     *big.Int // Target children of the best block must meet.
	Difficulty *big.Int // Hashes per block implied by Target.
	Time       uint64   // Time of the best block in milliseconds.
	NumBlocks  int      // Accepted blocks, the genesis included.
	NumOrphans int      // Blocks waiting for their parent.
}

// BlockChain provides functions for working with the block tree. It
// includes functionality such as rejecting duplicate blocks, ensuring blocks
// follow all rules, orphan handling, and best chain selection by cumulative
// work.
type BlockChain struct {
	params         *params.Params
	retarget       RetargetPolicy
	clock          clock.Clock
	maxOrphans     int
	orphanExpiry   time.Duration
	maxFutureDrift time.Duration
	notifications  NotificationCallback

	// chainLock protects concurrent access to the chain state.  Every
	// top-level ProcessBlock holds it for writes until its orphan cascade
	// is done, so readers never observe a partial insertion.
	chainLock sync.RWMutex

	index   *blockIndex
	genesis *blockNode
	tip     *blockNode

	// seen holds every hash that was buffered, accepted or rejected.
	seen map[hash.Hash]struct{}

	// orphans by their own hash and by the parent they wait for.
	orphans     map[hash.Hash]*orphanBlock
	prevOrphans map[hash.Hash][]*orphanBlock

	stateSnapshot *BestState

	notifyLock         sync.Mutex
	cacheNotifications []*Notification
}

// New returns a BlockChain instance using the provided configuration
// details. The tree is empty until the genesis block is processed.
func New(config *Config) (*BlockChain, error) {
	if config.ChainParams == nil {
		return nil, errors.New("blockchain.New chain parameters nil")
	}
	par := config.ChainParams

	retarget := config.Retarget
	if retarget == nil {
		retarget = PeriodRetarget{
			BlocksPerPeriod: par.BlocksPerPeriod,
			TimePerPeriod:   par.TargetTimePerPeriod(),
		}
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	maxOrphans := par.MaxOrphans
	if config.MaxOrphans > 0 {
		maxOrphans = config.MaxOrphans
	}

	orphanExpiry := config.OrphanExpiry
	if orphanExpiry == 0 {
		orphanExpiry = DefaultOrphanExpiry
	}

	b := &BlockChain{
		params:         par,
		retarget:       retarget,
		clock:          clk,
		maxOrphans:     maxOrphans,
		orphanExpiry:   orphanExpiry,
		maxFutureDrift: par.MaxFutureDrift,
		notifications:  config.Notifications,
		index:          newBlockIndex(),
		seen:           make(map[hash.Hash]struct{}),
		orphans:        make(map[hash.Hash]*orphanBlock),
		prevOrphans:    make(map[hash.Hash][]*orphanBlock),
	}
	b.updateBestState()

	log.Info("Chain state initialized", "network", par.Name,
		"difficulty", par.InitialDifficulty, "period", par.BlocksPerPeriod)
	return b, nil
}

// updateBestState refreshes the snapshot from the tip.
//
// This function MUST be called with the chain state lock held (for writes).
func (b *BlockChain) updateBestState() {
	state := &BestState{
		Work:       new(big.Int),
		Target:     b.params.InitialTarget(),
		NumBlocks:  b.index.count(),
		NumOrphans: len(b.orphans),
	}
	if b.tip != nil {
		state.Tip = Tip{Height: b.tip.height, Hash: b.tip.hash}
		state.Work = b.tip.workSum
		state.Target = b.tip.target
		state.Time = b.tip.block.Time
	}
	state.Difficulty = pow.TargetDifficulty(state.Target)
	b.stateSnapshot = state
}

// BestSnapshot returns information about the current best chain block and
// related state as of the current point in time.  The returned instance must be
// treated as immutable since it is shared by all callers.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestSnapshot() *BestState {
	b.chainLock.RLock()
	snapshot := b.stateSnapshot
	b.chainLock.RUnlock()
	return snapshot
}

// Tip returns the height and hash of the best block. Before the genesis block
// is processed this is the zero tip.
//
// This function is safe for concurrent access.
func (b *BlockChain) Tip() Tip {
	return b.BestSnapshot().Tip
}

// HaveBlock returns whether or not the chain instance has accepted the block
// represented by the passed hash. Orphans are not included.
//
// This function is safe for concurrent access.
func (b *BlockChain) HaveBlock(h hash.Hash) bool {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	return b.index.HaveBlock(h)
}

// BlockByHash returns the accepted block with the given hash.
//
// This function is safe for concurrent access.
func (b *BlockChain) BlockByHash(h hash.Hash) (*types.Block, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	node := b.index.lookupNode(h)
	if node == nil {
		return nil, HashError(h.String())
	}
	return node.block, nil
}

// WorkOf returns the cumulative work up to and including the block.
func (b *BlockChain) WorkOf(h hash.Hash) (*big.Int, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	node := b.index.lookupNode(h)
	if node == nil {
		return nil, HashError(h.String())
	}
	return new(big.Int).Set(node.workSum), nil
}

// HeightOf returns the height of the block. The genesis block has height 0.
func (b *BlockChain) HeightOf(h hash.Hash) (uint64, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	node := b.index.lookupNode(h)
	if node == nil {
		return 0, HashError(h.String())
	}
	return node.height, nil
}

// TargetOf returns the target children of the block must meet.
func (b *BlockChain) TargetOf(h hash.Hash) (*big.Int, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	node := b.index.lookupNode(h)
	if node == nil {
		return nil, HashError(h.String())
	}
	return new(big.Int).Set(node.target), nil
}

// ChildrenOf returns the hashes of the accepted children of the block in
// acceptance order.
func (b *BlockChain) ChildrenOf(h hash.Hash) []hash.Hash {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	node := b.index.lookupNode(h)
	if node == nil {
		return nil
	}
	children := make([]hash.Hash, 0, len(node.children))
	for _, c := range node.children {
		children = append(children, c.hash)
	}
	return children
}

// MainChain returns the blocks from the child of the genesis block up to the
// tip, oldest first.
//
// This function is safe for concurrent access.
func (b *BlockChain) MainChain() []*types.Block {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	if b.tip == nil {
		return nil
	}
	chain := make([]*types.Block, b.tip.height)
	for n := b.tip; n.parent != nil; n = n.parent {
		chain[n.height-1] = n.block
	}
	return chain
}

// ChainParams returns the network parameters the chain was created with.
func (b *BlockChain) ChainParams() *params.Params {
	return b.params
}
