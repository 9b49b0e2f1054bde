package blkmgr

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/blockchain"
	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
	"github.com/ubilog/ubilog/database/ldb"
	"github.com/ubilog/ubilog/p2p/addrmgr"
	"github.com/ubilog/ubilog/params"
	"github.com/ubilog/ubilog/services/slicepool"
)

var testStart = time.Unix(1600000000, 0)

var baseTime = uint64(testStart.UnixNano() / int64(time.Millisecond))

type sentMsg struct {
	to  string
	msg message.Message
}

type fakeTransport struct {
	mtx  sync.Mutex
	sent []sentMsg
}

func (f *fakeTransport) Send(to *types.NetAddress, msg message.Message) error {
	f.mtx.Lock()
	f.sent = append(f.sent, sentMsg{to: to.Key(), msg: msg})
	f.mtx.Unlock()
	return nil
}

// take returns and clears the messages sent so far.
func (f *fakeTransport) take() []sentMsg {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	sent := f.sent
	f.sent = nil
	return sent
}

type testManager struct {
	*BlockManager
	transport *fakeTransport
	db        database.DB
	gossip    *ticker.Force
	request   *ticker.Force
	save      *ticker.Force
	display   *ticker.Force
}

func newChain(t *testing.T) *blockchain.BlockChain {
	chain, err := blockchain.New(&blockchain.Config{
		ChainParams: &params.PrivNetParams,
		Clock:       clock.NewTestClock(testStart),
	})
	require.NoError(t, err)
	_, err = chain.ProcessBlock(params.PrivNetParams.GenesisBlock, blockchain.BFNone)
	require.NoError(t, err)
	return chain
}

func newTestManagerWith(t *testing.T, chain *blockchain.BlockChain, db database.DB) *testManager {
	clk := clock.NewTestClock(testStart)
	tm := &testManager{
		transport: &fakeTransport{},
		db:        db,
		gossip:    ticker.NewForce(time.Hour),
		request:   ticker.NewForce(time.Hour),
		save:      ticker.NewForce(time.Hour),
		display:   ticker.NewForce(time.Hour),
	}
	bm, err := New(&Config{
		Chain:         chain,
		SlicePool:     slicepool.New(),
		AddrManager:   addrmgr.New(clk, 0),
		Transport:     tm.transport,
		DB:            db,
		Clock:         clk,
		GossipTicker:  tm.gossip,
		RequestTicker: tm.request,
		SaveTicker:    tm.save,
		DisplayTicker: tm.display,
	})
	require.NoError(t, err)
	tm.BlockManager = bm
	require.NoError(t, bm.Start())
	t.Cleanup(func() { bm.Stop() })
	return tm
}

func newTestManager(t *testing.T) *testManager {
	db, err := ldb.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newTestManagerWith(t, newChain(t), db)
}

// sync waits until every message queued before it was handled.
func (tm *testManager) sync(t *testing.T) {
	outcome, err := tm.ProcessBlock(params.PrivNetParams.GenesisBlock)
	require.NoError(t, err)
	require.Equal(t, blockchain.StatusDuplicate, outcome.Status)
}

func peer(port uint16) *types.NetAddress {
	return types.NewNetAddressIPPort(net.ParseIP("10.0.0.1"), port)
}

func makeChain(prev hash.Hash, n int, nonce uint64) []*types.Block {
	blocks := make([]*types.Block, 0, n)
	for i := 0; i < n; i++ {
		b := &types.Block{Prev: prev, Time: baseTime + uint64(i)*1000, Name: 1, Nonce: nonce}
		blocks = append(blocks, b)
		prev = b.BlockHash()
	}
	return blocks
}

func TestMissingAncestorAsksSender(t *testing.T) {
	tm := newTestManager(t)
	blocks := makeChain(hash.ZeroHash, 2, 1)
	from := peer(1)

	tm.HandleMessage(from, message.NewMsgPutBlock(blocks[1]))
	tm.sync(t)

	sent := tm.transport.take()
	require.Len(t, sent, 1)
	require.Equal(t, from.Key(), sent[0].to)
	ask, ok := sent[0].msg.(*message.MsgAskBlock)
	require.True(t, ok)
	require.Equal(t, blocks[0].BlockHash(), ask.Hash)
	require.True(t, tm.requested.Contains(blocks[0].BlockHash()))

	// The same orphan again does not repeat the ask.
	tm.HandleMessage(from, message.NewMsgPutBlock(blocks[1]))
	tm.HandleMessage(peer(2), message.NewMsgPutBlock(blocks[0]))
	tm.sync(t)
	require.Empty(t, tm.transport.take())

	tip := tm.Chain().Tip()
	require.Equal(t, uint64(2), tip.Height)
	require.Equal(t, blocks[1].BlockHash(), tip.Hash)
	require.Zero(t, tm.requested.Cardinality())
}

func TestAskBlock(t *testing.T) {
	tm := newTestManager(t)
	blocks := makeChain(hash.ZeroHash, 1, 1)
	_, err := tm.ProcessBlock(blocks[0])
	require.NoError(t, err)

	from := peer(3)
	tm.HandleMessage(from, message.NewMsgAskBlock(blocks[0].BlockHash()))
	tm.HandleMessage(from, message.NewMsgAskBlock(hash.HashKeccak256([]byte("unknown"))))
	tm.sync(t)

	sent := tm.transport.take()
	require.Len(t, sent, 1)
	put, ok := sent[0].msg.(*message.MsgPutBlock)
	require.True(t, ok)
	require.Equal(t, blocks[0].BlockHash(), put.Block.BlockHash())
}

func TestGossipAndRequest(t *testing.T) {
	tm := newTestManager(t)
	tm.HandleMessage(peer(9), message.NewMsgPutPeers(peer(1), peer(2)))
	tm.sync(t)
	require.Equal(t, 2, tm.cfg.AddrManager.NumAddresses())

	// Before the first block only the addresses are gossiped.
	tm.gossip.Force <- time.Now()
	tm.sync(t)
	sent := tm.transport.take()
	require.Len(t, sent, 2)
	for _, s := range sent {
		put := s.msg.(*message.MsgPutPeers)
		require.Len(t, put.Peers, 2)
	}

	blocks := makeChain(hash.ZeroHash, 3, 1)
	_, err := tm.ProcessBlock(blocks[0])
	require.NoError(t, err)
	tm.gossip.Force <- time.Now()
	tm.sync(t)
	sent = tm.transport.take()
	require.Len(t, sent, 4)
	var tips int
	for _, s := range sent {
		if put, ok := s.msg.(*message.MsgPutBlock); ok {
			require.Equal(t, blocks[0].BlockHash(), put.Block.BlockHash())
			tips++
		}
	}
	require.Equal(t, 2, tips)

	// The missing parent of an orphan is requested from every peer.
	tm.HandleMessage(nil, message.NewMsgPutBlock(blocks[2]))
	tm.sync(t)
	tm.request.Force <- time.Now()
	tm.sync(t)
	sent = tm.transport.take()
	require.Len(t, sent, 2)
	for _, s := range sent {
		ask := s.msg.(*message.MsgAskBlock)
		require.Equal(t, blocks[1].BlockHash(), ask.Hash)
	}
}

func TestPutSlice(t *testing.T) {
	tm := newTestManager(t)
	tm.HandleMessage(peer(1), message.NewMsgPutSlice(types.NewSlice(1, []bool{true, false})))
	tm.HandleMessage(peer(1), message.NewMsgPutSlice(types.NewSlice(2, []bool{true})))
	tm.sync(t)
	require.Equal(t, 2, tm.cfg.SlicePool.Len())
}

func storedChain(t *testing.T, db database.DB) []hash.Hash {
	var hashes []hash.Hash
	err := db.ForEachBlock(func(height uint64, b *types.Block) error {
		require.Equal(t, uint64(len(hashes))+1, height)
		hashes = append(hashes, b.BlockHash())
		return nil
	})
	require.NoError(t, err)
	return hashes
}

func mainChainHashes(chain *blockchain.BlockChain) []hash.Hash {
	var hashes []hash.Hash
	for _, b := range chain.MainChain() {
		hashes = append(hashes, b.BlockHash())
	}
	return hashes
}

func TestSaveAndReplay(t *testing.T) {
	db, err := ldb.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	tm := newTestManagerWith(t, newChain(t), db)
	for _, b := range makeChain(hash.ZeroHash, 3, 1) {
		_, err := tm.ProcessBlock(b)
		require.NoError(t, err)
	}
	tm.save.Force <- time.Now()
	tm.sync(t)
	require.Equal(t, mainChainHashes(tm.Chain()), storedChain(t, db))

	// Grow a competing branch until it takes over, then save again.
	prev := hash.ZeroHash
	for i := uint64(0); i < 1000; i++ {
		b := &types.Block{Prev: prev, Time: baseTime + i*1000, Name: 2, Nonce: i}
		_, err := tm.ProcessBlock(b)
		require.NoError(t, err)
		prev = b.BlockHash()
		if tm.Chain().Tip().Hash == prev {
			break
		}
	}
	require.Equal(t, prev, tm.Chain().Tip().Hash)
	tm.save.Force <- time.Now()
	tm.sync(t)
	require.Equal(t, mainChainHashes(tm.Chain()), storedChain(t, db))
	want := tm.Chain().Tip()
	require.NoError(t, tm.Stop())

	// A fresh chain replays the database to the same tip.
	replay := newTestManagerWith(t, newChain(t), db)
	require.Equal(t, want, replay.Chain().Tip())
	require.Len(t, replay.saved, int(want.Height))
}

func TestStatus(t *testing.T) {
	tm := newTestManager(t)
	for _, b := range makeChain(hash.ZeroHash, 2, 1) {
		_, err := tm.ProcessBlock(b)
		require.NoError(t, err)
	}
	tm.display.Force <- time.Now()
	tm.sync(t)

	s := tm.status()
	require.Equal(t, uint64(2), s.Tip.Height)
	require.Equal(t, uint64(2), s.Mined)
	require.Equal(t, 3, s.Blocks)
	require.Zero(t, s.Orphans)
	require.Equal(t, testStart.UTC(), s.Time)
}

func TestShowChain(t *testing.T) {
	blocks := makeChain(hash.ZeroHash, 40, 1)
	out := ShowChain(blocks, 16)
	// Header, every fourth block and the tip.
	require.Equal(t, 12, strings.Count(out, "\n"))
	require.Contains(t, out, blocks[39].BlockHash().String())

	require.Equal(t, 1, strings.Count(ShowChain(nil, 16), "\n"))
	require.Equal(t, 4, strings.Count(ShowChain(blocks[:3], 16), "\n"))
}

func TestStopRefusesSubmissions(t *testing.T) {
	tm := newTestManager(t)
	require.NoError(t, tm.Stop())
	_, err := tm.ProcessBlock(makeChain(hash.ZeroHash, 1, 1)[0])
	require.Equal(t, ErrShuttingDown, err)
}

func TestLearnSenderWhileShort(t *testing.T) {
	tm := newTestManager(t)
	blocks := makeChain(hash.ZeroHash, 2, 1)

	tm.HandleMessage(peer(5), message.NewMsgPutBlock(blocks[0]))
	tm.HandleMessage(peer(6), message.NewMsgAskBlock(blocks[0].BlockHash()))
	tm.sync(t)
	am := tm.cfg.AddrManager
	require.Equal(t, 1, am.NumAddresses())
	tm.transport.take()

	peers := make([]*types.NetAddress, 0, 8)
	for port := uint16(100); port < 108; port++ {
		peers = append(peers, peer(port))
	}
	tm.HandleMessage(nil, message.NewMsgPutPeers(peers...))
	tm.sync(t)
	require.False(t, am.NeedMoreAddresses())
	require.Equal(t, 9, am.NumAddresses())

	// Enough addresses: block senders are no longer remembered.
	tm.HandleMessage(peer(7), message.NewMsgPutBlock(blocks[1]))
	tm.sync(t)
	require.Equal(t, 9, am.NumAddresses())
	require.Equal(t, uint64(2), tm.Chain().Tip().Height)
}
