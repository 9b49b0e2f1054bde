// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package slicepool ranks partial-work slices by their declared work.
//
// The pool is a plain max-priority queue. It does not deduplicate, expire or
// bound its contents, and it does not check the declared work against the
// slice hash; callers that want that do it before Submit.
package slicepool

import (
	"container/heap"
	"math/big"
	"sync"

	"github.com/ubilog/ubilog/core/types"
)

// SlicePool is safe for concurrent use.
type SlicePool struct {
	mtx     sync.Mutex
	pq      slicePriorityQueue
	nextSeq uint64
}

// New returns an empty pool.
func New() *SlicePool {
	return &SlicePool{}
}

// Submit adds slice ranked by work. A nil work ranks as zero.
func (sp *SlicePool) Submit(slice *types.Slice, work *big.Int) {
	if work == nil {
		work = new(big.Int)
	}
	sp.mtx.Lock()
	heap.Push(&sp.pq, &slicePrioItem{
		slice: slice,
		work:  new(big.Int).Set(work),
		seq:   sp.nextSeq,
	})
	sp.nextSeq++
	n := sp.pq.Len()
	sp.mtx.Unlock()

	log.Trace("Slice submitted", "nonce", slice.Nonce, "work", work, "pool", n)
}

// Best returns the slice with the most work without removing it, or nil when
// the pool is empty.
func (sp *SlicePool) Best() *types.Slice {
	sp.mtx.Lock()
	defer sp.mtx.Unlock()
	if sp.pq.Len() == 0 {
		return nil
	}
	return sp.pq.items[0].slice
}

// TakeBest removes and returns the slice with the most work, or nil when the
// pool is empty.
func (sp *SlicePool) TakeBest() *types.Slice {
	sp.mtx.Lock()
	defer sp.mtx.Unlock()
	if sp.pq.Len() == 0 {
		return nil
	}
	return heap.Pop(&sp.pq).(*slicePrioItem).slice
}

// Len returns the number of slices in the pool.
func (sp *SlicePool) Len() int {
	sp.mtx.Lock()
	defer sp.mtx.Unlock()
	return sp.pq.Len()
}
