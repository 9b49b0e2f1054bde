// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blkmgr

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
)

const showHeadBytes = 32

// ShowChain renders a main chain, oldest first, as a table of at most about
// lines rows. Long chains are sampled at a power of two stride; the last
// block is always shown. The work column is cumulative.
func ShowChain(blocks []*types.Block, lines int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%8s | %-13s | %-64s | %-64s | %s\n",
		"#", "time", "hash", "head", "work")
	if len(blocks) == 0 {
		return sb.String()
	}
	if lines < 1 {
		lines = 1
	}

	lim := 1
	for lim < len(blocks) {
		lim <<= 1
	}
	step := 1
	if lim > lines {
		step = lim / lines
	}

	works := make([]*big.Int, len(blocks))
	work := new(big.Int)
	for i, b := range blocks {
		work = new(big.Int).Add(work, pow.HashWork(b.BlockHash()))
		works[i] = work
	}

	for i := 0; i < len(blocks)-1; i += step {
		showBlock(&sb, blocks[i], uint64(i)+1, works[i])
	}
	last := len(blocks) - 1
	showBlock(&sb, blocks[last], uint64(last)+1, works[last])
	return sb.String()
}

func showBlock(sb *strings.Builder, b *types.Block, height uint64, work *big.Int) {
	fmt.Fprintf(sb, "%8d | %013d | %v | %s | %016s\n", height, b.Time,
		b.BlockHash(), hex.EncodeToString(b.Body[:showHeadBytes]), work.String())
}
