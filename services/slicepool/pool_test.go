package slicepool

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/ubilog/ubilog/core/types"
)

func TestTakeBestOrder(t *testing.T) {
	sp := New()
	assert.Nil(t, sp.Best())
	assert.Nil(t, sp.TakeBest())

	for _, w := range []int64{5, 9, 2} {
		sp.Submit(types.NewSlice(uint64(w), []bool{true}), big.NewInt(w))
	}
	assert.Equal(t, 3, sp.Len())
	assert.Equal(t, uint64(9), sp.Best().Nonce)
	assert.Equal(t, 3, sp.Len())

	var got []uint64
	for sp.Len() > 0 {
		got = append(got, sp.TakeBest().Nonce)
	}
	assert.Equal(t, []uint64{9, 5, 2}, got)
}

func TestEqualWorkIsFIFO(t *testing.T) {
	sp := New()
	for i := uint64(0); i < 5; i++ {
		sp.Submit(types.NewSlice(i, nil), big.NewInt(7))
	}
	sp.Submit(types.NewSlice(99, nil), nil)
	for i := uint64(0); i < 5; i++ {
		assert.Equal(t, i, sp.TakeBest().Nonce)
	}
	assert.Equal(t, uint64(99), sp.TakeBest().Nonce)
}

func TestSubmitCopiesWork(t *testing.T) {
	sp := New()
	w := big.NewInt(10)
	sp.Submit(types.NewSlice(1, nil), w)
	w.SetInt64(0)
	sp.Submit(types.NewSlice(2, nil), big.NewInt(5))
	assert.Equal(t, uint64(1), sp.TakeBest().Nonce)
}

func TestTakeBestIsSorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		works := rapid.SliceOf(rapid.Uint64()).Draw(t, "works")
		sp := New()
		for i, w := range works {
			sp.Submit(types.NewSlice(uint64(i), nil), new(big.Int).SetUint64(w))
		}
		prevWork, prevSeq := uint64(0), -1
		for i := 0; i < len(works); i++ {
			s := sp.TakeBest()
			w := works[s.Nonce]
			if i > 0 {
				if w > prevWork || (w == prevWork && int(s.Nonce) < prevSeq) {
					t.Fatalf("out of order: %d after %d", w, prevWork)
				}
			}
			prevWork, prevSeq = w, int(s.Nonce)
		}
		if sp.Len() != 0 {
			t.Fatalf("pool not drained")
		}
	})
}

func TestConcurrentSubmit(t *testing.T) {
	sp := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sp.Submit(types.NewSlice(uint64(g), nil), big.NewInt(int64(i)))
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 800, sp.Len())
}
