package types

import (
	"bytes"
	"encoding/hex"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/common/hash"
)

func TestGenesisHash(t *testing.T) {
	var b Block
	assert.True(t, b.IsGenesis())
	assert.Equal(t, hash.ZeroHash, b.BlockHash())

	// a body alone does not make a block distinct from the sentinel
	b.Body[0] = 1
	assert.Equal(t, hash.ZeroHash, b.BlockHash())

	b.Time = 1
	assert.False(t, b.IsGenesis())
	assert.NotEqual(t, hash.ZeroHash, b.BlockHash())
}

func TestBlockHashLayout(t *testing.T) {
	b := Block{Prev: hash.Hash{1}, Time: 2, Name: 3, Nonce: 4, Misc: 5}
	b.Body[BodySize-1] = 0xff

	raw := b.Bytes()
	require.Equal(t, BlockSize, len(raw))
	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, byte(2), raw[32])
	assert.Equal(t, byte(3), raw[40])
	assert.Equal(t, byte(4), raw[48])
	assert.Equal(t, byte(5), raw[56])
	assert.Equal(t, byte(0xff), raw[BlockSize-1])
	assert.Equal(t, hash.HashKeccak256(raw), b.BlockHash())

	// every field takes part in the hash
	c := b
	c.Misc++
	assert.NotEqual(t, b.BlockHash(), c.BlockHash())
	c = b
	c.Body[7] ^= 1
	assert.NotEqual(t, b.BlockHash(), c.BlockHash())
}

func TestBlockSerialize(t *testing.T) {
	b := Block{Prev: hash.HashKeccak256([]byte("p")), Time: 1600000000000, Name: 9, Nonce: 1 << 60}
	copy(b.Body[:], "hello")

	back, err := NewBlockFromBytes(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, b, *back)

	_, err = NewBlockFromBytes(b.Bytes()[:100])
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	sl := NewSlice(7, []bool{true, false, true, true, false, false, false, false, true})
	assert.Equal(t, 9, sl.BitLen())
	assert.Equal(t, []byte{0x0d, 0x01}, sl.PackedBits())

	var buf bytes.Buffer
	require.NoError(t, sl.Serialize(&buf))
	assert.Equal(t, sl.SerializeSize(), buf.Len())
	assert.Equal(t, "0700000000000000"+"0900"+"0d01", hex.EncodeToString(buf.Bytes()))
	assert.Equal(t, hash.HashKeccak256(buf.Bytes()), sl.Hash())

	var back Slice
	require.NoError(t, back.Deserialize(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, sl.Bits(), back.Bits())
	assert.Equal(t, sl.Hash(), back.Hash())

	other := NewSlice(7, []bool{true, false, true, true, false, false, false, false, false})
	assert.NotEqual(t, sl.Hash(), other.Hash())
}

func TestSliceHashCoversLength(t *testing.T) {
	short := NewSlice(1, []bool{true, false, true})
	long := NewSlice(1, []bool{true, false, true, false, false})
	assert.Equal(t, short.PackedBits(), long.PackedBits())
	assert.NotEqual(t, short.Hash(), long.Hash())
}

func TestSliceTooLong(t *testing.T) {
	raw := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}
	var sl Slice
	assert.Error(t, sl.Deserialize(bytes.NewReader(raw)))
}

func TestNetAddress(t *testing.T) {
	na, err := ParseNetAddress("127.0.0.1:16936")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:16936", na.String())

	var buf bytes.Buffer
	require.NoError(t, WriteNetAddress(&buf, na))
	assert.Equal(t, NetAddressSize, buf.Len())

	var back NetAddress
	require.NoError(t, ReadNetAddress(&buf, &back))
	assert.Equal(t, na.String(), back.String())
	assert.True(t, na.IP.Equal(back.IP))

	_, err = NewNetAddress(&net.TCPAddr{})
	assert.Equal(t, ErrInvalidNetAddr, err)

	_, err = ParseNetAddress("localhost:1")
	assert.Error(t, err)
}
