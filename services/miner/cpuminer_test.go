package miner

import (
	"encoding/binary"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
	"github.com/ubilog/ubilog/params"
	"github.com/ubilog/ubilog/services/slicepool"
)

var testStart = time.Unix(1600000000, 0)

func TestMinerName(t *testing.T) {
	secret := []byte("secret")
	h := hash.HashKeccak256(secret)
	require.Equal(t, binary.LittleEndian.Uint64(h[:8]), MinerName(secret))
	require.NotEqual(t, MinerName(secret), MinerName([]byte("other")))
}

func TestMine(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	template := &types.Block{Time: 5, Name: 7}

	// A zero target accepts the first nonce.
	block, tried := Mine(template, big.NewInt(0), 16, rnd)
	require.NotNil(t, block)
	require.Equal(t, 1, tried)
	require.Zero(t, template.Nonce)
	require.Equal(t, uint64(7), block.Name)

	// An easy target is met within a few thousand nonces.
	target := pow.Target(big.NewInt(64))
	block, tried = Mine(template, target, 1<<16, rnd)
	require.NotNil(t, block)
	require.True(t, pow.CheckWork(block.BlockHash(), target))
	require.LessOrEqual(t, tried, 1<<16)

	// The highest target is out of reach.
	max := new(big.Int).Sub(pow.OneLsh256, big.NewInt(1))
	block, tried = Mine(template, max, 8, rnd)
	require.Nil(t, block)
	require.Equal(t, 8, tried)
}

type submitter struct {
	chain *blockchain.BlockChain
	done  chan *types.Block
}

func (s *submitter) ProcessBlock(block *types.Block) (*blockchain.InsertOutcome, error) {
	outcome, err := s.chain.ProcessBlock(block, blockchain.BFNone)
	s.done <- block
	return outcome, err
}

func newChain(t *testing.T, clk clock.Clock) *blockchain.BlockChain {
	chain, err := blockchain.New(&blockchain.Config{
		ChainParams: &params.PrivNetParams,
		Clock:       clk,
	})
	require.NoError(t, err)
	_, err = chain.ProcessBlock(params.PrivNetParams.GenesisBlock, blockchain.BFNone)
	require.NoError(t, err)
	return chain
}

func TestCPUMiner(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	chain := newChain(t, clk)
	pool := slicepool.New()
	slice := types.NewSlice(3, []bool{true, true, false, true})
	pool.Submit(slice, big.NewInt(5))

	tick := ticker.NewForce(time.Hour)
	sub := &submitter{chain: chain, done: make(chan *types.Block, 1)}
	m, err := New(&Config{
		Chain:     chain,
		Submitter: sub,
		SlicePool: pool,
		SecretKey: []byte("secret"),
		Clock:     clk,
		Ticker:    tick,
	})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	wantMisc := pow.CompressNat(chain.BestSnapshot().Difficulty)
	for i := 1; i <= 3; i++ {
		tick.Force <- time.Now()
		block := <-sub.done
		require.Equal(t, MinerName([]byte("secret")), block.Name)
		require.Equal(t, wantMisc, block.Misc)
		require.Equal(t, slice.PackedBits()[0], block.Body[0])

		tip := chain.Tip()
		require.Equal(t, uint64(i), tip.Height)
		require.Equal(t, block.BlockHash(), tip.Hash)
	}

	// The clock did not move, so each block is one millisecond after the
	// previous one.
	blocks := chain.MainChain()
	require.Equal(t, blocks[0].Time+2, blocks[2].Time)
	require.Eventually(t, func() bool { return m.Mined() == 3 }, time.Second, time.Millisecond)
	require.Equal(t, uint64(3), m.HashesTried())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(&Config{})
	require.Error(t, err)
}
