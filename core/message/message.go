// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ubilog/ubilog/core/types"
)

// MessageType is the tag byte that starts every datagram.
type MessageType uint8

// Message tags.
const (
	CmdPutPeers MessageType = 0
	CmdPutSlice MessageType = 1
	CmdPutBlock MessageType = 2
	CmdAskBlock MessageType = 3
)

var messageTypeStrings = map[MessageType]string{
	CmdPutPeers: "PutPeers",
	CmdPutSlice: "PutSlice",
	CmdPutBlock: "PutBlock",
	CmdAskBlock: "AskBlock",
}

func (t MessageType) String() string {
	if s, ok := messageTypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown MessageType (%d)", uint8(t))
}

// MaxMessagePayload is the maximum bytes a datagram can be, tag included.
// The largest message is a full PutBlock.
const MaxMessagePayload = 1 + types.BlockSize

// Message is an interface that describes a ubilog message.  A type that
// implements Message has complete control over the representation of its data
// and may therefore contain additional or fewer fields than those which
// are used directly in the protocol encoded message.
type Message interface {
	Decode(io.Reader) error
	Encode(io.Writer) error
	Command() MessageType
	MaxPayloadLength() uint32
}

// makeEmptyMessage creates a message of the appropriate concrete type based
// on the tag.
func makeEmptyMessage(cmd MessageType) (Message, error) {
	var msg Message
	switch cmd {
	case CmdPutPeers:
		msg = &MsgPutPeers{}

	case CmdPutSlice:
		msg = &MsgPutSlice{}

	case CmdPutBlock:
		msg = &MsgPutBlock{}

	case CmdAskBlock:
		msg = &MsgAskBlock{}

	default:
		return nil, fmt.Errorf("unhandled message type [%d]", uint8(cmd))
	}
	return msg, nil
}

// WriteMessage encodes msg as a datagram: the tag byte followed by the
// payload.
func WriteMessage(msg Message) ([]byte, error) {
	var bw bytes.Buffer
	bw.WriteByte(byte(msg.Command()))
	if err := msg.Encode(&bw); err != nil {
		return nil, err
	}

	// Enforce maximum message payload.
	if uint32(bw.Len()-1) > msg.MaxPayloadLength() {
		str := fmt.Sprintf("message payload is too large - encoded "+
			"%d bytes, but maximum message payload of type %v is "+
			"%d bytes", bw.Len()-1, msg.Command(), msg.MaxPayloadLength())
		return nil, messageError("WriteMessage", str)
	}
	return bw.Bytes(), nil
}

// ReadMessage decodes a datagram. Unknown tags, short payloads and trailing
// bytes are all rejected with a MessageError.
func ReadMessage(datagram []byte) (Message, error) {
	if len(datagram) == 0 {
		return nil, messageError("ReadMessage", "empty datagram")
	}
	if len(datagram) > MaxMessagePayload {
		str := fmt.Sprintf("datagram of %d bytes exceeds max %d",
			len(datagram), MaxMessagePayload)
		return nil, messageError("ReadMessage", str)
	}

	cmd := MessageType(datagram[0])
	msg, err := makeEmptyMessage(cmd)
	if err != nil {
		return nil, messageError("ReadMessage", err.Error())
	}

	payload := datagram[1:]
	if uint32(len(payload)) > msg.MaxPayloadLength() {
		str := fmt.Sprintf("payload exceeds max length - type %v "+
			"payload is %d bytes, but max is %d", cmd, len(payload),
			msg.MaxPayloadLength())
		return nil, messageError("ReadMessage", str)
	}

	r := bytes.NewReader(payload)
	if err := msg.Decode(r); err != nil {
		return nil, messageError("ReadMessage", fmt.Sprintf("bad %v: %v", cmd, err))
	}
	if r.Len() != 0 {
		str := fmt.Sprintf("%d trailing bytes after %v", r.Len(), cmd)
		return nil, messageError("ReadMessage", str)
	}
	return msg, nil
}

// Summary returns a human-readable string which summarizes a message.
// This is used for debug logging.
func Summary(msg Message) string {
	switch msg := msg.(type) {
	case *MsgPutPeers:
		return fmt.Sprintf("%d addr", len(msg.Peers))

	case *MsgPutSlice:
		return msg.Slice.String()

	case *MsgPutBlock:
		return fmt.Sprintf("hash %v, prev %v, time %d", msg.Block.BlockHash(),
			msg.Block.Prev, msg.Block.Time)

	case *MsgAskBlock:
		return fmt.Sprintf("hash %v", msg.Hash)
	}
	return ""
}
