// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blkmgr

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
	"github.com/ubilog/ubilog/metrics"
	"github.com/ubilog/ubilog/p2p/addrmgr"
	"github.com/ubilog/ubilog/services/common/progresslog"
	"github.com/ubilog/ubilog/services/slicepool"
)

const (
	// DefaultGossipInterval is how often the tip block and the known
	// addresses are pushed to peers.
	DefaultGossipInterval = time.Second

	// DefaultRequestInterval is how often missing ancestors are asked for.
	DefaultRequestInterval = time.Second / 32

	// DefaultSaveInterval is how often the main chain is persisted.
	DefaultSaveInterval = 30 * time.Second

	// DefaultDisplayInterval is how often the status line is logged.
	DefaultDisplayInterval = time.Second

	// msgQueueSize is the buffer of the inbound queue before it spills
	// into its overflow list.
	msgQueueSize = 256
)

// ErrShuttingDown is returned by calls made while the manager stops.
var ErrShuttingDown = errors.New("block manager is shutting down")

var (
	blocksAccepted  = metrics.NewCounter("blkmgr/blocks/accepted")
	blocksDuplicate = metrics.NewCounter("blkmgr/blocks/duplicate")
	blocksOrphaned  = metrics.NewCounter("blkmgr/blocks/orphaned")
	blocksRejected  = metrics.NewCounter("blkmgr/blocks/rejected")
	slicesSubmitted = metrics.NewCounter("blkmgr/slices/submitted")
	tipHeight       = metrics.NewGauge("blkmgr/tip/height")
)

// Transport delivers messages to peers.
type Transport interface {
	Send(to *types.NetAddress, msg message.Message) error
}

// Config holds the collaborators of the block manager.
type Config struct {
	Chain       *blockchain.BlockChain
	SlicePool   *slicepool.SlicePool
	AddrManager *addrmgr.AddrManager
	Transport   Transport

	// DB persists the main chain. It may be nil to disable the loader and
	// the saver.
	DB database.DB

	// Clock is used for the status line. Defaults to the system clock.
	Clock clock.Clock

	// Tickers drive the periodic jobs. Nil tickers get the default
	// intervals, except DisplayTicker which disables the status line.
	GossipTicker  ticker.Ticker
	RequestTicker ticker.Ticker
	SaveTicker    ticker.Ticker
	DisplayTicker ticker.Ticker
}

// BlockManager is the single writer between the network and the chain
// state. Inbound messages and local submissions are funnelled through one
// queue and handled by one goroutine, together with the periodic gossip,
// request, save and display jobs.
type BlockManager struct {
	started  int32
	shutdown int32

	cfg      Config
	chain    *blockchain.BlockChain
	msgQueue *queue.ConcurrentQueue

	// requested holds the ancestors asked for and not yet received.
	requested mapset.Set

	// saved is the main chain as last written to the database, by height
	// minus one.
	saved []hash.Hash

	mined uint64

	progress *progresslog.BlockProgressLogger

	wg   sync.WaitGroup
	quit chan struct{}
}

// peerMsg is a message received from the network.
type peerMsg struct {
	from *types.NetAddress
	msg  message.Message
}

// processBlockResponse is a response sent to the reply channel of a
// processBlockMsg.
type processBlockResponse struct {
	outcome *blockchain.InsertOutcome
	err     error
}

// processBlockMsg is a message type to be sent across the message queue
// for a locally produced block.
type processBlockMsg struct {
	block *types.Block
	reply chan processBlockResponse
}

// New returns a new block manager. Use Start to begin processing.
func New(cfg *Config) (*BlockManager, error) {
	if cfg.Chain == nil || cfg.SlicePool == nil || cfg.AddrManager == nil ||
		cfg.Transport == nil {

		return nil, errors.New("blkmgr: chain, slice pool, address " +
			"manager and transport are required")
	}
	c := *cfg
	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.GossipTicker == nil {
		c.GossipTicker = ticker.New(DefaultGossipInterval)
	}
	if c.RequestTicker == nil {
		c.RequestTicker = ticker.New(DefaultRequestInterval)
	}
	if c.SaveTicker == nil {
		c.SaveTicker = ticker.New(DefaultSaveInterval)
	}
	return &BlockManager{
		cfg:       c,
		chain:     c.Chain,
		msgQueue:  queue.NewConcurrentQueue(msgQueueSize),
		requested: mapset.NewSet(),
		progress:  progresslog.NewBlockProgressLogger("Processed", log, c.Clock),
		quit:      make(chan struct{}),
	}, nil
}

// Start replays the database into the chain and begins the handler.
func (b *BlockManager) Start() error {
	// Already started?
	if atomic.AddInt32(&b.started, 1) != 1 {
		return nil
	}

	if err := b.loadChain(); err != nil {
		return err
	}

	log.Trace("Starting block manager")
	b.msgQueue.Start()
	b.cfg.GossipTicker.Resume()
	b.cfg.RequestTicker.Resume()
	b.cfg.SaveTicker.Resume()
	if b.cfg.DisplayTicker != nil {
		b.cfg.DisplayTicker.Resume()
	}

	b.wg.Add(1)
	go b.blockHandler()
	return nil
}

// Stop ends the handler after a final save.
func (b *BlockManager) Stop() error {
	if atomic.AddInt32(&b.shutdown, 1) != 1 {
		log.Warn("Block manager is already in the process of " +
			"shutting down")
		return nil
	}

	log.Info("Block manager shutting down")
	close(b.quit)
	b.wg.Wait()

	b.cfg.GossipTicker.Stop()
	b.cfg.RequestTicker.Stop()
	b.cfg.SaveTicker.Stop()
	if b.cfg.DisplayTicker != nil {
		b.cfg.DisplayTicker.Stop()
	}
	b.msgQueue.Stop()
	return nil
}

// HandleMessage queues a message received from a peer. It never blocks on
// the handler.
func (b *BlockManager) HandleMessage(from *types.NetAddress, msg message.Message) {
	select {
	case b.msgQueue.ChanIn() <- &peerMsg{from: from, msg: msg}:
	case <-b.quit:
	}
}

// ProcessBlock submits a locally produced block and waits for the outcome.
func (b *BlockManager) ProcessBlock(block *types.Block) (*blockchain.InsertOutcome, error) {
	reply := make(chan processBlockResponse, 1)
	select {
	case b.msgQueue.ChanIn() <- &processBlockMsg{block: block, reply: reply}:
	case <-b.quit:
		return nil, ErrShuttingDown
	}
	select {
	case response := <-reply:
		return response.outcome, response.err
	case <-b.quit:
		return nil, ErrShuttingDown
	}
}

// Chain returns the chain state the manager writes to.
func (b *BlockManager) Chain() *blockchain.BlockChain {
	return b.chain
}

// blockHandler is the only goroutine that writes to the chain on behalf of
// the network.
func (b *BlockManager) blockHandler() {
	defer b.wg.Done()

	var displayTicks <-chan time.Time
	if b.cfg.DisplayTicker != nil {
		displayTicks = b.cfg.DisplayTicker.Ticks()
	}

out:
	for {
		select {
		case m := <-b.msgQueue.ChanOut():
			switch msg := m.(type) {
			case *peerMsg:
				b.handleMessage(msg.from, msg.msg)

			case *processBlockMsg:
				outcome, err := b.processBlock(nil, msg.block)
				if err == nil && outcome.Status == blockchain.StatusAccepted {
					b.mined++
				}
				msg.reply <- processBlockResponse{outcome: outcome, err: err}

			default:
				log.Warn("Invalid message type in block handler",
					"type", m)
			}

		case <-b.cfg.GossipTicker.Ticks():
			b.gossipTip()
			b.gossipPeers()

		case <-b.cfg.RequestTicker.Ticks():
			b.requestPending()

		case <-b.cfg.SaveTicker.Ticks():
			if err := b.saveChain(); err != nil {
				log.Error("Failed to save chain", "err", err)
			}

		case <-displayTicks:
			b.displayStatus()

		case <-b.quit:
			break out
		}
	}

	if err := b.saveChain(); err != nil {
		log.Error("Failed to save chain", "err", err)
	}
	log.Trace("Block handler done")
}
