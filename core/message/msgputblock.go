// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"io"

	"github.com/ubilog/ubilog/core/types"
)

// MsgPutBlock implements the Message interface and carries one block.
type MsgPutBlock struct {
	Block types.Block
}

// Decode decodes r using the protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgPutBlock) Decode(r io.Reader) error {
	return msg.Block.Deserialize(r)
}

// Encode encodes the receiver to w using the protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgPutBlock) Encode(w io.Writer) error {
	return msg.Block.Serialize(w)
}

// Command returns the message tag.  This is part of the Message interface
// implementation.
func (msg *MsgPutBlock) Command() MessageType {
	return CmdPutBlock
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgPutBlock) MaxPayloadLength() uint32 {
	return types.BlockSize
}

// NewMsgPutBlock returns a new PutBlock message.
func NewMsgPutBlock(block *types.Block) *MsgPutBlock {
	return &MsgPutBlock{Block: *block}
}
