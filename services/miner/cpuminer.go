// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/big"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
	"github.com/ubilog/ubilog/metrics"
	"github.com/ubilog/ubilog/services/slicepool"
)

const (
	// DefaultMaxAttempts is the number of nonces tried per tick.
	DefaultMaxAttempts = 16

	// DefaultMineInterval is the time between two rounds of attempts.
	DefaultMineInterval = time.Second / 64
)

var (
	hashesTried = metrics.NewMeter("miner/hashes")
	blocksFound = metrics.NewCounter("miner/blocks")
)

// ChainState exposes the best block the miner builds on.
type ChainState interface {
	BestSnapshot() *blockchain.BestState
}

// BlockSubmitter accepts solved blocks.
type BlockSubmitter interface {
	ProcessBlock(block *types.Block) (*blockchain.InsertOutcome, error)
}

// Config is a descriptor containing the cpu miner configuration.
type Config struct {
	Chain     ChainState
	Submitter BlockSubmitter

	// SlicePool supplies the body of new blocks. It may be nil, in which
	// case bodies are empty.
	SlicePool *slicepool.SlicePool

	// SecretKey identifies the miner. The block Name is derived from it.
	SecretKey []byte

	// MaxAttempts is the number of nonces tried per tick.
	MaxAttempts int

	Clock  clock.Clock
	Ticker ticker.Ticker
}

// CPUMiner provides facilities for solving blocks (mining) using the CPU in
// a concurrency-safe manner. Each tick it builds a template on the current
// tip and tries a bounded number of random nonces, so it never holds the
// CPU for long.
type CPUMiner struct {
	started  int32
	shutdown int32

	cfg  Config
	name uint64
	rnd  *rand.Rand

	hashes uint64
	mined  uint64

	wg   sync.WaitGroup
	quit chan struct{}
}

// MinerName derives the block Name from a secret key: the low 64 bits of
// its Keccak-256 digest.
func MinerName(secret []byte) uint64 {
	h := hash.HashKeccak256(secret)
	return binary.LittleEndian.Uint64(h[:8])
}

// New returns a new instance of a CPU miner. Use Start to begin the mining
// process.
func New(cfg *Config) (*CPUMiner, error) {
	if cfg.Chain == nil || cfg.Submitter == nil {
		return nil, errors.New("miner: chain and submitter are required")
	}
	c := *cfg
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.Ticker == nil {
		c.Ticker = ticker.New(DefaultMineInterval)
	}

	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, err
	}
	return &CPUMiner{
		cfg:  c,
		name: MinerName(c.SecretKey),
		rnd:  rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))),
		quit: make(chan struct{}),
	}, nil
}

// Start begins the mining loop.
func (m *CPUMiner) Start() error {
	if atomic.AddInt32(&m.started, 1) != 1 {
		return nil
	}
	log.Info("CPU miner started", "name", m.name, "attempts", m.cfg.MaxAttempts)
	m.cfg.Ticker.Resume()
	m.wg.Add(1)
	go m.mineLoop()
	return nil
}

// Stop ends the mining loop and waits for it.
func (m *CPUMiner) Stop() error {
	if atomic.AddInt32(&m.shutdown, 1) != 1 {
		return nil
	}
	close(m.quit)
	m.wg.Wait()
	m.cfg.Ticker.Stop()
	log.Info("CPU miner stopped", "mined", m.Mined())
	return nil
}

// Mined returns the number of blocks this miner found and the chain
// accepted.
func (m *CPUMiner) Mined() uint64 {
	return atomic.LoadUint64(&m.mined)
}

// HashesTried returns the number of nonces tried so far.
func (m *CPUMiner) HashesTried() uint64 {
	return atomic.LoadUint64(&m.hashes)
}

func (m *CPUMiner) mineLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.cfg.Ticker.Ticks():
			m.mineOnce()
		case <-m.quit:
			return
		}
	}
}

// template builds the next block on top of best.
func (m *CPUMiner) template(best *blockchain.BestState) *types.Block {
	now := uint64(m.cfg.Clock.Now().UnixNano() / int64(time.Millisecond))
	if now <= best.Time {
		now = best.Time + 1
	}
	block := &types.Block{
		Prev: best.Hash,
		Time: now,
		Name: m.name,
		Misc: pow.CompressNat(best.Difficulty),
	}
	if m.cfg.SlicePool != nil {
		if slice := m.cfg.SlicePool.Best(); slice != nil {
			copy(block.Body[:], slice.PackedBits())
		}
	}
	return block
}

// mineOnce runs one round of attempts and submits a solution.
func (m *CPUMiner) mineOnce() {
	best := m.cfg.Chain.BestSnapshot()
	if best.NumBlocks == 0 {
		return
	}
	block, tried := Mine(m.template(best), best.Target, m.cfg.MaxAttempts, m.rnd)
	atomic.AddUint64(&m.hashes, uint64(tried))
	hashesTried.Mark(int64(tried))
	if block == nil {
		return
	}

	h := block.BlockHash()
	outcome, err := m.cfg.Submitter.ProcessBlock(block)
	if err != nil {
		log.Debug("Mined block refused", "hash", h, "err", err)
		return
	}
	if outcome.Status != blockchain.StatusAccepted {
		log.Debug("Mined block not accepted", "hash", h, "status", outcome.Status)
		return
	}
	atomic.AddUint64(&m.mined, 1)
	blocksFound.Inc(1)
	log.Info("Block mined", "height", best.Height+1, "hash", h, "nonce", block.Nonce)
}

// Mine tries up to attempts random nonces on a copy of template and returns
// the first block whose hash meets target, with the number of hashes
// computed. It returns nil when no nonce worked.
func Mine(template *types.Block, target *big.Int, attempts int, rnd *rand.Rand) (*types.Block, int) {
	block := *template
	for i := 0; i < attempts; i++ {
		block.Nonce = rnd.Uint64()
		if pow.CheckWork(block.BlockHash(), target) {
			return &block, i + 1
		}
	}
	return nil, attempts
}
