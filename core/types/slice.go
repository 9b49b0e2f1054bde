// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package types

import (
	"bytes"
	"fmt"
	"io"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/ubilog/ubilog/common/hash"
	s "github.com/ubilog/ubilog/core/serialization"
)

// MaxSliceBits bounds the data of a slice to the number of bits in a body.
const MaxSliceBits = BodySize * 8

// Slice is a partial-work share: a nonce and a vector of bits.
type Slice struct {
	Nonce uint64
	Data  bitfield.Bitlist
}

// NewSlice builds a slice from a nonce and its bits.
func NewSlice(nonce uint64, bits []bool) *Slice {
	data := bitfield.NewBitlist(uint64(len(bits)))
	for i, b := range bits {
		if b {
			data.SetBitAt(uint64(i), true)
		}
	}
	return &Slice{Nonce: nonce, Data: data}
}

// BitLen returns the number of bits in the slice data.
func (sl *Slice) BitLen() int {
	if len(sl.Data) == 0 {
		return 0
	}
	return int(sl.Data.Len())
}

// Bits returns the slice data as booleans.
func (sl *Slice) Bits() []bool {
	n := sl.BitLen()
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = sl.Data.BitAt(uint64(i))
	}
	return bits
}

// PackedBits returns the data packed eight bits per byte, least significant
// bit first, without a length marker.
func (sl *Slice) PackedBits() []byte {
	n := sl.BitLen()
	packed := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if sl.Data.BitAt(uint64(i)) {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return packed
}

// Hash returns the Keccak-256 of the serialized slice: the nonce, the bit
// length and the packed bits.
func (sl *Slice) Hash() hash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, sl.SerializeSize()))
	_ = sl.Serialize(buf)
	return hash.HashKeccak256(buf.Bytes())
}

func (sl *Slice) String() string {
	return fmt.Sprintf("slice %v (nonce %d, %d bits)", sl.Hash(), sl.Nonce, sl.BitLen())
}

// SerializeSize returns the encoded size of the slice.
func (sl *Slice) SerializeSize() int {
	return 8 + 2 + (sl.BitLen()+7)/8
}

// Serialize writes the nonce, the bit length and the packed bits.
func (sl *Slice) Serialize(w io.Writer) error {
	return s.WriteElements(w, sl.Nonce, uint16(sl.BitLen()), sl.PackedBits())
}

// Deserialize reads a slice written by Serialize.
func (sl *Slice) Deserialize(r io.Reader) error {
	var bitLen uint16
	err := s.ReadElements(r, &sl.Nonce, &bitLen)
	if err != nil {
		return err
	}
	if int(bitLen) > MaxSliceBits {
		return fmt.Errorf("slice of %d bits exceeds max %d", bitLen, MaxSliceBits)
	}
	packed := make([]byte, (int(bitLen)+7)/8)
	if err := s.ReadElements(r, packed); err != nil {
		return err
	}
	data := bitfield.NewBitlist(uint64(bitLen))
	for i := 0; i < int(bitLen); i++ {
		if packed[i/8]&(1<<uint(i%8)) != 0 {
			data.SetBitAt(uint64(i), true)
		}
	}
	sl.Data = data
	return nil
}
