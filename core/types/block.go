// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package types

import (
	"bytes"
	"io"

	"github.com/ubilog/ubilog/common/hash"
	s "github.com/ubilog/ubilog/core/serialization"
)

const (
	// BodySize is the fixed size of a block body in bytes.
	BodySize = 1280

	// BlockSize is the size of a serialized block: the previous hash, four
	// 64-bit fields and the body.
	BlockSize = hash.HashSize + 4*8 + BodySize
)

// Body is the opaque payload carried by every block.
type Body [BodySize]byte

// Block is one element of the chain. Its identity is the Keccak-256 of its
// serialization; the all-zero block is the genesis sentinel and hashes to
// hash.ZeroHash.
type Block struct {
	// Hash of the parent block.
	Prev hash.Hash

	// Creation time in milliseconds since the unix epoch.
	Time uint64

	// Miner identity.
	Name uint64

	Nonce uint64

	// Free-form field, miners store the compressed target difficulty here.
	Misc uint64

	Body Body
}

// IsGenesis reports whether the block is the default block that stands for
// the genesis sentinel.
func (b *Block) IsGenesis() bool {
	return b.Prev.IsZero() && b.Time == 0 && b.Name == 0 && b.Nonce == 0 &&
		b.Misc == 0
}

// BlockHash computes the block identifier hash for the given block.
func (b *Block) BlockHash() hash.Hash {
	if b.IsGenesis() {
		return hash.ZeroHash
	}
	buf := bytes.NewBuffer(make([]byte, 0, BlockSize))
	// Writing to a bytes.Buffer cannot fail.
	_ = b.Serialize(buf)
	return hash.HashKeccak256(buf.Bytes())
}

// Serialize encodes the block to w in the fixed little-endian layout used
// both on the wire and in the database.
func (b *Block) Serialize(w io.Writer) error {
	return s.WriteElements(w, &b.Prev, b.Time, b.Name, b.Nonce, b.Misc,
		b.Body[:])
}

// Deserialize decodes a block from r into the receiver.
func (b *Block) Deserialize(r io.Reader) error {
	return s.ReadElements(r, &b.Prev, &b.Time, &b.Name, &b.Nonce, &b.Misc,
		b.Body[:])
}

// Bytes returns the serialized block.
func (b *Block) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, BlockSize))
	_ = b.Serialize(buf)
	return buf.Bytes()
}

// NewBlockFromBytes returns a block decoded from its serialized form.
func NewBlockFromBytes(serialized []byte) (*Block, error) {
	var b Block
	err := b.Deserialize(bytes.NewReader(serialized))
	if err != nil {
		return nil, err
	}
	return &b, nil
}
