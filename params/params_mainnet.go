// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package params

import "time"

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:        "mainnet",
	DefaultPort: 16936,
	Bootstrap:   []string{},

	GenesisBlock:       &genesisBlock,
	GenesisHash:        &genesisHash,
	InitialDifficulty:  256,
	BlocksPerPeriod:    20,
	TargetTimePerBlock: time.Second,
	MaxFutureDrift:     time.Hour,
	MaxOrphans:         4096,
}
