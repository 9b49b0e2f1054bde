package serialization

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/common/hash"
)

func TestElementsLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	h := hash.Hash{0xaa}
	ip := [16]byte{15: 1}
	require.NoError(t, WriteElements(&buf, uint8(3), uint16(0x0102), uint64(0x0807060504030201), &h, ip, []byte{9, 9}))

	raw := buf.Bytes()
	assert.Equal(t, 1+2+8+32+16+2, len(raw))
	assert.Equal(t, []byte{3, 0x02, 0x01}, raw[:3])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, raw[3:11])

	var (
		u8   uint8
		u16  uint16
		u64  uint64
		h2   hash.Hash
		ip2  [16]byte
		tail = make([]byte, 2)
	)
	require.NoError(t, ReadElements(bytes.NewReader(raw), &u8, &u16, &u64, &h2, &ip2, tail))
	assert.Equal(t, uint8(3), u8)
	assert.Equal(t, uint16(0x0102), u16)
	assert.Equal(t, uint64(0x0807060504030201), u64)
	assert.Equal(t, h, h2)
	assert.Equal(t, ip, ip2)
	assert.Equal(t, []byte{9, 9}, tail)
}

func TestReadElementsShort(t *testing.T) {
	var u64 uint64
	assert.Error(t, ReadElements(bytes.NewReader([]byte{1, 2, 3}), &u64))
}
