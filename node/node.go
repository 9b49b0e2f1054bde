// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/pkg/errors"

	"github.com/ubilog/ubilog/config"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
	"github.com/ubilog/ubilog/metrics"
	"github.com/ubilog/ubilog/node/service"
	"github.com/ubilog/ubilog/p2p"
	"github.com/ubilog/ubilog/p2p/addrmgr"
	"github.com/ubilog/ubilog/params"
	"github.com/ubilog/ubilog/services/blkmgr"
	"github.com/ubilog/ubilog/services/miner"
	"github.com/ubilog/ubilog/services/slicepool"
)

// processMetricsInterval is how often process metrics are sampled.
const processMetricsInterval = 3 * time.Second

// Node wires the chain state, the block manager, the datagram server and
// the optional miner together.
type Node struct {
	started  int32
	shutdown int32

	cfg    *config.Config
	params *params.Params
	db     database.DB

	chain    *blockchain.BlockChain
	pool     *slicepool.SlicePool
	addrMgr  *addrmgr.AddrManager
	server   *p2p.Server
	blkMgr   *blkmgr.BlockManager
	miner    *miner.CPUMiner
	services *service.ServiceRegistry

	wg   sync.WaitGroup
	quit chan struct{}
}

// New builds a node. db may be nil, in which case the chain is not
// persisted.
func New(cfg *config.Config, db database.DB, par *params.Params) (*Node, error) {
	chain, err := blockchain.New(&blockchain.Config{
		ChainParams: par,
		MaxOrphans:  cfg.MaxOrphans,
	})
	if err != nil {
		return nil, err
	}
	if _, err := chain.ProcessBlock(par.GenesisBlock, blockchain.BFNone); err != nil {
		return nil, errors.Wrap(err, "insert genesis block")
	}

	n := &Node{
		cfg:      cfg,
		params:   par,
		db:       db,
		chain:    chain,
		pool:     slicepool.New(),
		addrMgr:  addrmgr.New(nil, cfg.MaxPeers),
		services: service.NewServiceRegistry(),
		quit:     make(chan struct{}),
	}

	n.server, err = p2p.NewServer(&p2p.Config{
		Listen:  cfg.Listener,
		Handler: n,
	})
	if err != nil {
		return nil, err
	}
	n.addrMgr.SetSelf(n.server.LocalAddr())
	for _, peer := range append(append([]string{}, par.Bootstrap...), cfg.AddPeers...) {
		addr, err := types.ParseNetAddress(peer)
		if err != nil {
			n.server.Stop()
			return nil, errors.Wrapf(err, "peer %s", peer)
		}
		n.addrMgr.AddAddress(addr)
	}

	bmCfg := &blkmgr.Config{
		Chain:         chain,
		SlicePool:     n.pool,
		AddrManager:   n.addrMgr,
		Transport:     n.server,
		DB:            db,
		GossipTicker:  newTicker(cfg.GossipInterval, blkmgr.DefaultGossipInterval),
		RequestTicker: newTicker(cfg.RequestInterval, blkmgr.DefaultRequestInterval),
		SaveTicker:    newTicker(cfg.SaveInterval, blkmgr.DefaultSaveInterval),
	}
	if cfg.Display {
		bmCfg.DisplayTicker = ticker.New(blkmgr.DefaultDisplayInterval)
	}
	n.blkMgr, err = blkmgr.New(bmCfg)
	if err != nil {
		n.server.Stop()
		return nil, err
	}

	// The block manager loads the saved chain, so it starts before any
	// datagram is read and stops after the server, with a final save.
	n.services.RegisterService(n.blkMgr)
	n.services.RegisterService(n.server)

	if cfg.Generate {
		n.miner, err = miner.New(&miner.Config{
			Chain:       chain,
			Submitter:   n.blkMgr,
			SlicePool:   n.pool,
			SecretKey:   cfg.SecretKeyBytes(),
			MaxAttempts: cfg.MaxAttempts,
			Ticker:      newTicker(cfg.MineInterval, miner.DefaultMineInterval),
		})
		if err != nil {
			n.server.Stop()
			return nil, err
		}
		n.services.RegisterService(n.miner)
	}
	return n, nil
}

func newTicker(interval, def time.Duration) ticker.Ticker {
	if interval <= 0 {
		interval = def
	}
	return ticker.New(interval)
}

// HandleMessage passes datagrams from the server to the block manager.
func (n *Node) HandleMessage(from *types.NetAddress, msg message.Message) {
	n.blkMgr.HandleMessage(from, msg)
}

// Start starts every service of the node.
func (n *Node) Start() error {
	if atomic.AddInt32(&n.started, 1) != 1 {
		return errors.New("node is already started")
	}
	log.Info("Starting node", "network", n.params.Name,
		"listen", n.server.LocalAddr(), "peers", n.addrMgr.NumAddresses())

	if err := n.services.StartAll(); err != nil {
		return err
	}
	if metrics.Enabled {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			metrics.CollectProcessMetrics(processMetricsInterval, n.quit)
		}()
	}
	return nil
}

// Stop stops every service, the miner first and the block manager last.
func (n *Node) Stop() error {
	if atomic.AddInt32(&n.shutdown, 1) != 1 {
		return errors.New("node is already in the process of shutting down")
	}
	log.Info("Stopping node")
	close(n.quit)
	return n.services.StopAll()
}

// WaitForShutdown blocks until the node goroutines are done.
func (n *Node) WaitForShutdown() {
	n.wg.Wait()
	log.Info("Node shutdown complete")
}

// Chain returns the chain state.
func (n *Node) Chain() *blockchain.BlockChain {
	return n.chain
}

// BlockManager returns the block manager.
func (n *Node) BlockManager() *blkmgr.BlockManager {
	return n.blkMgr
}

// LocalAddr returns the address the node receives datagrams on.
func (n *Node) LocalAddr() *types.NetAddress {
	return n.server.LocalAddr()
}

// Miner returns the CPU miner, or nil when mining is disabled.
func (n *Node) Miner() *miner.CPUMiner {
	return n.miner
}
