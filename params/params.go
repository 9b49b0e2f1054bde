// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package params

import (
	"errors"
	"math/big"
	"time"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/core/types/pow"
)

// Params defines a ubilog network by its parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// DefaultPort defines the default peer-to-peer udp port for the network.
	DefaultPort uint16

	// Bootstrap defines a list of peers that are contacted on startup.
	Bootstrap []string

	// GenesisBlock defines the first block of the chain. It is always the
	// all-zero sentinel block.
	GenesisBlock *types.Block

	// GenesisHash is the starting block hash.
	GenesisHash *hash.Hash

	// InitialDifficulty is the expected number of hashes per block for the
	// children of the genesis block.
	InitialDifficulty int64

	// BlocksPerPeriod is the retarget period in blocks. Zero disables
	// retargeting.
	BlocksPerPeriod uint64

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// MaxFutureDrift is how far ahead of the local clock a block time may be.
	MaxFutureDrift time.Duration

	// MaxOrphans bounds the number of blocks waiting for their parent.
	MaxOrphans int
}

// TargetTimePerPeriod is the desired duration of one retarget period.
func (p *Params) TargetTimePerPeriod() time.Duration {
	return p.TargetTimePerBlock * time.Duration(p.BlocksPerPeriod)
}

// InitialTarget is the target children of the genesis block must meet.
func (p *Params) InitialTarget() *big.Int {
	return pow.Target(big.NewInt(p.InitialDifficulty))
}

var (
	// ErrDuplicateNet describes an error where the parameters for a network
	// could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes a lookup of a network that was never
	// registered.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters. This may error with
// ErrDuplicateNet if the network is already registered (either due to a
// previous Register call, or the network being one of the default networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Name] = params
	return nil
}

// Lookup returns the registered parameters of the named network.
func Lookup(name string) (*Params, error) {
	p, ok := registeredNets[name]
	if !ok {
		return nil, ErrUnknownNet
	}
	return p, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error.  This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
	mustRegister(&PrivNetParams)
}
