// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package params

import "time"

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name:        "testnet",
	DefaultPort: 26936,
	Bootstrap:   []string{},

	GenesisBlock:       &genesisBlock,
	GenesisHash:        &genesisHash,
	InitialDifficulty:  16,
	BlocksPerPeriod:    20,
	TargetTimePerBlock: time.Second,
	MaxFutureDrift:     time.Hour,
	MaxOrphans:         4096,
}
