// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"io"

	"github.com/ubilog/ubilog/common/hash"
	s "github.com/ubilog/ubilog/core/serialization"
)

// MsgAskBlock implements the Message interface and requests the block with
// the given hash. Peers that have it answer with a PutBlock.
type MsgAskBlock struct {
	Hash hash.Hash
}

// Decode decodes r using the protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgAskBlock) Decode(r io.Reader) error {
	return s.ReadElements(r, &msg.Hash)
}

// Encode encodes the receiver to w using the protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgAskBlock) Encode(w io.Writer) error {
	return s.WriteElements(w, &msg.Hash)
}

// Command returns the message tag.  This is part of the Message interface
// implementation.
func (msg *MsgAskBlock) Command() MessageType {
	return CmdAskBlock
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgAskBlock) MaxPayloadLength() uint32 {
	return hash.HashSize
}

// NewMsgAskBlock returns a new AskBlock message.
func NewMsgAskBlock(h hash.Hash) *MsgAskBlock {
	return &MsgAskBlock{Hash: h}
}
