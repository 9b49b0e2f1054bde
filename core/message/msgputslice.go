// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"io"

	"github.com/ubilog/ubilog/core/types"
)

// MsgPutSlice implements the Message interface and carries a partial-work
// share.
type MsgPutSlice struct {
	Slice types.Slice
}

// Decode decodes r using the protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgPutSlice) Decode(r io.Reader) error {
	return msg.Slice.Deserialize(r)
}

// Encode encodes the receiver to w using the protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgPutSlice) Encode(w io.Writer) error {
	if msg.Slice.BitLen() > types.MaxSliceBits {
		return messageError("MsgPutSlice.Encode", "slice too long")
	}
	return msg.Slice.Serialize(w)
}

// Command returns the message tag.  This is part of the Message interface
// implementation.
func (msg *MsgPutSlice) Command() MessageType {
	return CmdPutSlice
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgPutSlice) MaxPayloadLength() uint32 {
	// Nonce 8 bytes + bit length 2 bytes + packed bits.
	return 8 + 2 + types.MaxSliceBits/8
}

// NewMsgPutSlice returns a new PutSlice message.
func NewMsgPutSlice(slice *types.Slice) *MsgPutSlice {
	return &MsgPutSlice{Slice: *slice}
}
