// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"time"
)

// Config holds the options of the ubilogd daemon.
type Config struct {
	HomeDir       string   `short:"A" long:"appdata" description:"Path to application home directory"`
	ShowVersion   bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string   `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir       string   `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir        string   `long:"logdir" description:"Directory to log output."`
	NoFileLogging bool     `long:"nofilelogging" description:"Disable file logging."`
	DebugLevel    string   `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, crit}"`
	PrintOrigins  bool     `long:"printorigin" description:"Print log debug location (file:line)"`
	Listener      string   `long:"listen" description:"Interface/port to listen for datagrams (default all interfaces, port: 16936, testnet: 26936, privnet: 36936)"`
	AddPeers      []string `short:"a" long:"addpeer" description:"Add a peer to gossip with at startup"`
	MaxPeers      int      `long:"maxpeers" description:"Max number of known peer addresses"`
	TestNet       bool     `long:"testnet" description:"Use the test network"`
	PrivNet       bool     `long:"privnet" description:"Use the private network"`
	DbType        string   `long:"dbtype" description:"Database backend to use for the block chain {leveldb, bolt, badger}"`
	MaxOrphans    int      `long:"maxorphans" description:"Max number of blocks waiting for their parent"`
	Metrics       bool     `long:"metrics" description:"Enable metrics collection"`

	// Miner
	Generate    bool   `long:"generate" description:"Generate (mine) blocks using the CPU"`
	SecretKey   string `long:"secretkey" description:"Hex encoded secret the mined block name is derived from"`
	MaxAttempts int    `long:"maxattempts" description:"Nonces tried per mining round"`

	// Periodic jobs
	GossipInterval  time.Duration `long:"gossipinterval" description:"How often the tip is sent to peers"`
	RequestInterval time.Duration `long:"requestinterval" description:"How often missing blocks are requested"`
	SaveInterval    time.Duration `long:"saveinterval" description:"How often the main chain is saved"`
	MineInterval    time.Duration `long:"mineinterval" description:"Time between mining rounds"`
	Display         bool          `long:"display" description:"Log a status line every second"`

	secretKey []byte
}

// SecretKeyBytes returns the decoded secret key.
func (c *Config) SecretKeyBytes() []byte {
	return c.secretKey
}
