package blockchain

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
	"github.com/ubilog/ubilog/params"
)

var testStart = time.Unix(1600000000, 0)

// baseTime is testStart in block time units.
var baseTime = uint64(testStart.UnixNano() / int64(time.Millisecond))

type recorder struct {
	sync.Mutex
	notes []*Notification
}

func (r *recorder) notify(n *Notification) {
	r.Lock()
	r.notes = append(r.notes, n)
	r.Unlock()
}

func (r *recorder) types() []NotificationType {
	r.Lock()
	defer r.Unlock()
	ts := make([]NotificationType, 0, len(r.notes))
	for _, n := range r.notes {
		ts = append(ts, n.Type)
	}
	return ts
}

type testChain struct {
	*BlockChain
	clock *clock.TestClock
	rec   *recorder
}

func newTestChainWith(t *testing.T, par *params.Params, cfg Config) *testChain {
	tc := &testChain{
		clock: clock.NewTestClock(testStart),
		rec:   &recorder{},
	}
	cfg.ChainParams = par
	cfg.Clock = tc.clock
	cfg.Notifications = tc.rec.notify
	chain, err := New(&cfg)
	require.NoError(t, err)
	tc.BlockChain = chain
	return tc
}

// newTestChain returns a chain on the private network, where every hash
// meets the target, with the genesis block already processed.
func newTestChain(t *testing.T) *testChain {
	tc := newTestChainWith(t, &params.PrivNetParams, Config{})
	_, err := tc.ProcessBlock(params.PrivNetParams.GenesisBlock, BFNone)
	require.NoError(t, err)
	return tc
}

func makeBlock(prev hash.Hash, time, nonce uint64) *types.Block {
	return &types.Block{Prev: prev, Time: time, Name: 1, Nonce: nonce}
}

// makeChain builds n blocks on top of prev spaced one second apart.
func makeChain(prev hash.Hash, start uint64, n int, nonce uint64) []*types.Block {
	blocks := make([]*types.Block, 0, n)
	for i := 0; i < n; i++ {
		b := makeBlock(prev, start+uint64(i)*1000, nonce)
		blocks = append(blocks, b)
		prev = b.BlockHash()
	}
	return blocks
}

func workOf(b *types.Block) *big.Int {
	return pow.HashWork(b.BlockHash())
}

// findBlock searches nonces until accept returns true.
func findBlock(t *testing.T, prev hash.Hash, time uint64, accept func(*types.Block) bool) *types.Block {
	for nonce := uint64(0); nonce < 1000000; nonce++ {
		b := makeBlock(prev, time, nonce)
		if accept(b) {
			return b
		}
	}
	t.Fatal("no block found")
	return nil
}
