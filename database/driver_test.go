package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/core/types"
)

func TestRegisterDriver(t *testing.T) {
	drv := Driver{
		DbType: "registry-test",
		Create: func(string) (DB, error) { return nil, nil },
		Open:   func(string) (DB, error) { return nil, nil },
	}
	require.NoError(t, RegisterDriver(drv))
	err := RegisterDriver(drv)
	require.True(t, IsErrorCode(err, ErrDbTypeRegistered), "%v", err)
	require.Contains(t, SupportedDrivers(), "registry-test")

	_, err = Create("no-such-driver", t.TempDir())
	require.True(t, IsErrorCode(err, ErrDbUnknownType), "%v", err)
	_, err = Open("no-such-driver", t.TempDir())
	require.True(t, IsErrorCode(err, ErrDbUnknownType), "%v", err)
}

func TestBlockKeyOrder(t *testing.T) {
	for _, h := range []uint64{0, 1, 255, 256, 1 << 40} {
		got, err := HeightFromKey(BlockKey(h))
		require.NoError(t, err)
		require.Equal(t, h, got)
	}
	require.Less(t, string(BlockKey(255)), string(BlockKey(256)))

	_, err := HeightFromKey([]byte("blk"))
	require.True(t, IsErrorCode(err, ErrCorruption))
}

func TestDecodeBlock(t *testing.T) {
	b := &types.Block{Time: 9, Name: 3}
	got, err := DecodeBlock(EncodeBlock(b))
	require.NoError(t, err)
	require.Equal(t, b.BlockHash(), got.BlockHash())

	_, err = DecodeBlock(make([]byte, types.BlockSize-1))
	require.True(t, IsErrorCode(err, ErrCorruption))
}
