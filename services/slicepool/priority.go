// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package slicepool

import (
	"math/big"

	"github.com/ubilog/ubilog/core/types"
)

// slicePrioItem houses a slice along with the declared work it is ranked by
// and its submission sequence number.
type slicePrioItem struct {
	slice *types.Slice
	work  *big.Int
	seq   uint64
}

// slicePriorityQueue implements a max-priority queue of slicePrioItem
// elements ordered by work, earlier submissions first on equal work.
type slicePriorityQueue struct {
	items []*slicePrioItem
}

// Len returns the number of items in the priority queue.  It is part of the
// heap.Interface implementation.
func (pq *slicePriorityQueue) Len() int {
	return len(pq.items)
}

// Less returns whether the item with index i should come out before the item
// with index j.  It is part of the heap.Interface implementation.
func (pq *slicePriorityQueue) Less(i, j int) bool {
	// Using > here so that pop gives the highest work item as opposed
	// to the lowest.
	c := pq.items[i].work.Cmp(pq.items[j].work)
	if c == 0 {
		return pq.items[i].seq < pq.items[j].seq
	}
	return c > 0
}

// Swap swaps the items at the passed indices in the priority queue.  It is
// part of the heap.Interface implementation.
func (pq *slicePriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push pushes the passed item onto the priority queue.  It is part of the
// heap.Interface implementation.
func (pq *slicePriorityQueue) Push(x interface{}) {
	pq.items = append(pq.items, x.(*slicePrioItem))
}

// Pop removes the highest priority item (according to Less) from the priority
// queue and returns it.  It is part of the heap.Interface implementation.
func (pq *slicePriorityQueue) Pop() interface{} {
	n := len(pq.items)
	item := pq.items[n-1]
	pq.items[n-1] = nil
	pq.items = pq.items[0 : n-1]
	return item
}
