// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package params

import "time"

// PrivNetParams defines the network parameters for a private network. The
// initial difficulty of one accepts every hash and retargeting is off, which
// makes it suitable for simulation and tests.
var PrivNetParams = Params{
	Name:        "privnet",
	DefaultPort: 36936,
	Bootstrap:   []string{}, // NOTE: There must NOT be any seeds.

	GenesisBlock:       &genesisBlock,
	GenesisHash:        &genesisHash,
	InitialDifficulty:  1,
	BlocksPerPeriod:    0,
	TargetTimePerBlock: time.Second,
	MaxFutureDrift:     time.Hour,
	MaxOrphans:         4096,
}
