// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
)

// blockIndex provides facilities for keeping track of an in-memory index of the
// block tree.  Although the name block chain suggests a single chain of
// blocks, it is actually a tree-shaped structure where any node can have
// multiple children.  However, there can only be one active branch which does
// indeed form a chain from the tip all the way back to the genesis block.
//
// The index has no lock of its own, callers hold the chain lock.
type blockIndex struct {
	index map[hash.Hash]*blockNode
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex() *blockIndex {
	return &blockIndex{
		index: make(map[hash.Hash]*blockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided hash.
func (bi *blockIndex) HaveBlock(h hash.Hash) bool {
	_, ok := bi.index[h]
	return ok
}

// lookupNode returns the block node identified by the provided hash.  It will
// return nil if there is no entry for the hash.
func (bi *blockIndex) lookupNode(h hash.Hash) *blockNode {
	return bi.index[h]
}

// addNode adds the provided node to the block index.
func (bi *blockIndex) addNode(node *blockNode) {
	bi.index[node.hash] = node
}

func (bi *blockIndex) count() int {
	return len(bi.index)
}

// Block implements ChainView.
func (bi *blockIndex) Block(h hash.Hash) *types.Block {
	if node := bi.lookupNode(h); node != nil {
		return node.block
	}
	return nil
}

// Height implements ChainView.
func (bi *blockIndex) Height(h hash.Hash) (uint64, bool) {
	if node := bi.lookupNode(h); node != nil {
		return node.height, true
	}
	return 0, false
}

// Target implements ChainView.
func (bi *blockIndex) Target(h hash.Hash) *big.Int {
	if node := bi.lookupNode(h); node != nil {
		return node.target
	}
	return nil
}

// RelativeAncestor implements ChainView.
func (bi *blockIndex) RelativeAncestor(h hash.Hash, distance uint64) *types.Block {
	node := bi.lookupNode(h)
	if node == nil {
		return nil
	}
	if ancestor := node.RelativeAncestor(distance); ancestor != nil {
		return ancestor.block
	}
	return nil
}
