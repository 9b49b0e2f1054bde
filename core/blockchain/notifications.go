// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various chain events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// BlockAccepted indicates the associated block was accepted into
	// the block tree.  Note that this does not necessarily mean it became
	// the tip.  For that, use TipChanged.
	BlockAccepted NotificationType = iota

	// TipChanged indicates the best block changed.
	TipChanged

	// OrphanAdded indicates a block is waiting for its parent.
	OrphanAdded
)

// notificationTypeStrings is a map of notification types back to their constant
// names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	BlockAccepted: "BlockAccepted",
	TipChanged:    "TipChanged",
	OrphanAdded:   "OrphanAdded",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// BlockAcceptedNotifyData is the structure for data indicating information
// about an accepted block.
type BlockAcceptedNotifyData struct {
	IsMainChainTipChange bool

	Block  *types.Block
	Hash   hash.Hash
	Height uint64
}

// OrphanNotifyData describes a block buffered until Missing arrives.
type OrphanNotifyData struct {
	Block   *types.Block
	Hash    hash.Hash
	Missing hash.Hash
}

// Notification defines notification that is sent to the caller via the callback
// function provided during the call to New and consists of a notification type
// as well as associated data that depends on the type as follows:
//   - BlockAccepted: *BlockAcceptedNotifyData
//   - TipChanged:    Tip
//   - OrphanAdded:   *OrphanNotifyData
type Notification struct {
	Type NotificationType
	Data interface{}
}

// sendNotification caches a notification with the passed type and data if
// the caller requested notifications by providing a callback function in the
// call to New. Cached notifications are delivered by flushNotifications once
// the chain lock is released.
func (b *BlockChain) sendNotification(typ NotificationType, data interface{}) {
	// Ignore it if the caller didn't request notifications.
	if b.notifications == nil {
		return
	}

	n := &Notification{Type: typ, Data: data}
	b.cacheNotifications = append(b.cacheNotifications, n)
}

// flushNotifications delivers the cached notifications. It MUST be called
// without the chain lock held.
func (b *BlockChain) flushNotifications() {
	b.notifyLock.Lock()
	defer b.notifyLock.Unlock()

	b.chainLock.Lock()
	pending := b.cacheNotifications
	b.cacheNotifications = nil
	b.chainLock.Unlock()

	for _, n := range pending {
		log.Trace("send chain notification", "type", n.Type)
		b.notifications(n)
	}
}
