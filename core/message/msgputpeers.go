// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"fmt"
	"io"

	s "github.com/ubilog/ubilog/core/serialization"
	"github.com/ubilog/ubilog/core/types"
)

// MaxPeersPerMsg is the maximum number of addresses that can be in a single
// PutPeers message.
const MaxPeersPerMsg = 64

// MsgPutPeers implements the Message interface and shares known peer
// addresses.
type MsgPutPeers struct {
	Peers []*types.NetAddress
}

// AddAddress adds a known active peer to the message.
func (msg *MsgPutPeers) AddAddress(na *types.NetAddress) error {
	if len(msg.Peers)+1 > MaxPeersPerMsg {
		str := fmt.Sprintf("too many addresses in message [max %v]",
			MaxPeersPerMsg)
		return messageError("MsgPutPeers.AddAddress", str)
	}
	msg.Peers = append(msg.Peers, na)
	return nil
}

// Decode decodes r using the protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgPutPeers) Decode(r io.Reader) error {
	var count uint16
	if err := s.ReadElements(r, &count); err != nil {
		return err
	}

	// Limit to max addresses per message.
	if count > MaxPeersPerMsg {
		str := fmt.Sprintf("too many addresses for message "+
			"[count %v, max %v]", count, MaxPeersPerMsg)
		return messageError("MsgPutPeers.Decode", str)
	}

	addrList := make([]types.NetAddress, count)
	msg.Peers = make([]*types.NetAddress, 0, count)
	for i := uint16(0); i < count; i++ {
		na := &addrList[i]
		if err := types.ReadNetAddress(r, na); err != nil {
			return err
		}
		msg.Peers = append(msg.Peers, na)
	}
	return nil
}

// Encode encodes the receiver to w using the protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgPutPeers) Encode(w io.Writer) error {
	count := len(msg.Peers)
	if count > MaxPeersPerMsg {
		str := fmt.Sprintf("too many addresses for message "+
			"[count %v, max %v]", count, MaxPeersPerMsg)
		return messageError("MsgPutPeers.Encode", str)
	}

	if err := s.WriteElements(w, uint16(count)); err != nil {
		return err
	}
	for _, na := range msg.Peers {
		if err := types.WriteNetAddress(w, na); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the message tag.  This is part of the Message interface
// implementation.
func (msg *MsgPutPeers) Command() MessageType {
	return CmdPutPeers
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgPutPeers) MaxPayloadLength() uint32 {
	// Count 2 bytes + max addresses.
	return 2 + MaxPeersPerMsg*types.NetAddressSize
}

// NewMsgPutPeers returns a new PutPeers message.
func NewMsgPutPeers(peers ...*types.NetAddress) *MsgPutPeers {
	return &MsgPutPeers{Peers: peers}
}
