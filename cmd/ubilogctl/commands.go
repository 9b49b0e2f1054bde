// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/config"
	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
	"github.com/ubilog/ubilog/params"
	"github.com/ubilog/ubilog/services/blkmgr"
)

const (
	defaultPeer    = "127.0.0.1:16936"
	defaultTimeout = 3 * time.Second
	defaultLines   = 24
)

var (
	peerFlag = &cli.StringFlag{
		Name:    "peer",
		Aliases: []string{"p"},
		Usage:   "Node address as host:port",
		Value:   defaultPeer,
	}

	putSliceCmd = &cli.Command{
		Name:      "putslice",
		Usage:     "Submit a slice to a node's slice pool",
		ArgsUsage: "<bits>",
		Flags: []cli.Flag{
			peerFlag,
			&cli.Uint64Flag{
				Name:    "nonce",
				Aliases: []string{"n"},
				Usage:   "Slice nonce",
			},
		},
		Action: putSlice,
	}

	askBlockCmd = &cli.Command{
		Name:      "askblock",
		Usage:     "Ask a node for a block and print the reply",
		ArgsUsage: "<hash>",
		Flags: []cli.Flag{
			peerFlag,
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "How long to wait for the reply",
				Value:   defaultTimeout,
			},
		},
		Action: askBlock,
	}

	showChainCmd = &cli.Command{
		Name:  "showchain",
		Usage: "Print the main chain saved in a block database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "datadir",
				Aliases: []string{"b"},
				Usage:   "Node data directory, without the network name",
				Value:   config.Default().DataDir,
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Network {mainnet,testnet,privnet}",
				Value: params.MainNetParams.Name,
			},
			&cli.StringFlag{
				Name:  "dbtype",
				Usage: "Database backend {leveldb, bolt, badger}",
				Value: config.Default().DbType,
			},
			&cli.IntFlag{
				Name:    "lines",
				Aliases: []string{"l"},
				Usage:   "Maximum number of block rows",
				Value:   defaultLines,
			},
		},
		Action: showChain,
	}
)

// parseBits reads a slice bitfield written as a string of 0 and 1.
func parseBits(s string) ([]bool, error) {
	if len(s) > types.MaxSliceBits {
		return nil, errors.Errorf("slice has %d bits, max %d", len(s), types.MaxSliceBits)
	}
	bits := make([]bool, len(s))
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			bits[i] = true
		default:
			return nil, errors.Errorf("invalid bit %q at %d", c, i)
		}
	}
	return bits, nil
}

func putSlice(c *cli.Context) error {
	bits, err := parseBits(c.Args().First())
	if err != nil {
		return err
	}
	slice := types.NewSlice(c.Uint64("nonce"), bits)
	conn, err := dial(c.String("peer"))
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := send(conn, message.NewMsgPutSlice(slice)); err != nil {
		return err
	}
	fmt.Printf("sent slice %v\n", slice.Hash())
	return nil
}

func askBlock(c *cli.Context) error {
	h, err := hash.NewHashFromStr(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "block hash")
	}
	conn, err := dial(c.String("peer"))
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := send(conn, message.NewMsgAskBlock(*h)); err != nil {
		return err
	}

	deadline := time.Now().Add(c.Duration("timeout"))
	buf := make([]byte, message.MaxMessagePayload+1)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		n, err := conn.Read(buf)
		if err != nil {
			return errors.Wrap(err, "no reply")
		}
		msg, err := message.ReadMessage(buf[:n])
		if err != nil {
			continue
		}
		put, ok := msg.(*message.MsgPutBlock)
		if !ok || put.Block.BlockHash() != *h {
			continue
		}
		spew.Dump(&put.Block)
		return nil
	}
}

func showChain(c *cli.Context) error {
	par, err := params.Lookup(c.String("network"))
	if err != nil {
		return err
	}
	dbType := c.String("dbtype")
	path := filepath.Join(c.String("datadir"), par.Name, "blocks_"+dbType)
	db, err := database.Open(dbType, path)
	if err != nil {
		return err
	}
	defer db.Close()

	var blocks []*types.Block
	err = db.ForEachBlock(func(height uint64, b *types.Block) error {
		if height != uint64(len(blocks))+1 {
			return errors.Errorf("missing block at height %d", len(blocks)+1)
		}
		blocks = append(blocks, b)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Print(blkmgr.ShowChain(blocks, c.Int("lines")))
	return nil
}

func dial(peer string) (*net.UDPConn, error) {
	raddr, err := net.ResolveUDPAddr("udp", peer)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", peer)
	}
	return net.DialUDP("udp", nil, raddr)
}

func send(conn *net.UDPConn, msg message.Message) error {
	datagram, err := message.WriteMessage(msg)
	if err != nil {
		return err
	}
	_, err = conn.Write(datagram)
	return err
}
