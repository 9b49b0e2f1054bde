// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
)

// blockNode represents an accepted block within the block tree. Nodes are
// never removed, so a pointer to a node stays valid for the life of the
// chain.
type blockNode struct {
	// parent is the parent block for this node. It is nil for genesis.
	parent *blockNode

	// hash is the hash of the block this node represents.
	hash hash.Hash

	// workSum is the total amount of work in the chain up to and including
	// this node.
	workSum *big.Int

	// target is the threshold children of this block must reach.
	target *big.Int

	height uint64

	block *types.Block

	children []*blockNode
}

// newBlockNode returns a new block node for the given block and parent node.
// The work sum and height are derived from the parent.
func newBlockNode(block *types.Block, h hash.Hash, parent *blockNode, target *big.Int) *blockNode {
	node := &blockNode{
		hash:    h,
		block:   block,
		target:  target,
		workSum: new(big.Int),
	}
	if parent != nil {
		node.parent = parent
		node.height = parent.height + 1
		node.workSum.Add(parent.workSum, blockWork(h))
		parent.children = append(parent.children, node)
	}
	return node
}

// Ancestor returns the ancestor block node at the provided height by following
// the chain backwards from this node.  The returned block will be nil when a
// height is requested that is after the height of the passed node.
func (node *blockNode) Ancestor(height uint64) *blockNode {
	if height > node.height {
		return nil
	}

	n := node
	for ; n != nil && n.height != height; n = n.parent {
		// Intentionally left blank
	}

	return n
}

// RelativeAncestor returns the ancestor block node a relative 'distance' blocks
// before this node.  This is equivalent to calling Ancestor with the node's
// height minus provided distance.
func (node *blockNode) RelativeAncestor(distance uint64) *blockNode {
	if distance > node.height {
		return nil
	}
	return node.Ancestor(node.height - distance)
}
