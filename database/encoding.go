// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"encoding/binary"
	"fmt"

	"github.com/ubilog/ubilog/core/types"
)

// BlockKeyPrefix starts every block key. Keys are the prefix followed by the
// big-endian height, so byte order iteration is height order.
var BlockKeyPrefix = []byte("blk")

// BlockKeySize is the length of a block key.
var BlockKeySize = len(BlockKeyPrefix) + 8

// BlockKey returns the key a block at height is stored under.
func BlockKey(height uint64) []byte {
	key := make([]byte, BlockKeySize)
	copy(key, BlockKeyPrefix)
	binary.BigEndian.PutUint64(key[len(BlockKeyPrefix):], height)
	return key
}

// HeightFromKey is the inverse of BlockKey.
func HeightFromKey(key []byte) (uint64, error) {
	if len(key) != BlockKeySize {
		str := fmt.Sprintf("block key of %d bytes, want %d", len(key), BlockKeySize)
		return 0, makeError(ErrCorruption, str, nil)
	}
	return binary.BigEndian.Uint64(key[len(BlockKeyPrefix):]), nil
}

// EncodeBlock returns the stored form of a block.
func EncodeBlock(b *types.Block) []byte {
	return b.Bytes()
}

// DecodeBlock parses a stored block.
func DecodeBlock(value []byte) (*types.Block, error) {
	if len(value) != types.BlockSize {
		str := fmt.Sprintf("stored block of %d bytes, want %d", len(value), types.BlockSize)
		return nil, makeError(ErrCorruption, str, nil)
	}
	return types.NewBlockFromBytes(value)
}

// DecodeEntry parses a stored key and value pair.
func DecodeEntry(key, value []byte) (uint64, *types.Block, error) {
	height, err := HeightFromKey(key)
	if err != nil {
		return 0, nil, err
	}
	b, err := DecodeBlock(value)
	if err != nil {
		return 0, nil, err
	}
	return height, b, nil
}
