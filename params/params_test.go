package params

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types/pow"
)

func TestGenesis(t *testing.T) {
	for _, p := range []*Params{&MainNetParams, &TestNetParams, &PrivNetParams} {
		assert.Equal(t, hash.ZeroHash, p.GenesisBlock.BlockHash(), p.Name)
		assert.Equal(t, *p.GenesisHash, p.GenesisBlock.BlockHash(), p.Name)
	}
}

func TestInitialTarget(t *testing.T) {
	assert.Equal(t, int64(256), pow.TargetDifficulty(MainNetParams.InitialTarget()).Int64())
	assert.Equal(t, 0, PrivNetParams.InitialTarget().Cmp(new(big.Int)))
	assert.Equal(t, 20*time.Second, MainNetParams.TargetTimePerPeriod())
	assert.Equal(t, uint16(16936), MainNetParams.DefaultPort)
}

func TestRegister(t *testing.T) {
	p, err := Lookup("testnet")
	require.NoError(t, err)
	assert.Equal(t, &TestNetParams, p)

	_, err = Lookup("nonet")
	assert.Equal(t, ErrUnknownNet, err)

	assert.Equal(t, ErrDuplicateNet, Register(&MainNetParams))

	custom := PrivNetParams
	custom.Name = "simnet"
	require.NoError(t, Register(&custom))
	p, err = Lookup("simnet")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.BlocksPerPeriod)
}
