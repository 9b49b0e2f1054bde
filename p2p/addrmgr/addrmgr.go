// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addrmgr keeps the table of known peer addresses.
package addrmgr

import (
	"sort"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/ubilog/ubilog/core/types"
	l "github.com/ubilog/ubilog/log"
)

var log = l.New(l.Ctx{"module": "addrmgr"})

// KnownAddress tracks information about a known network address.
type KnownAddress struct {
	Addr     *types.NetAddress
	LastSeen time.Time
}

// AddrManager provides a concurrency safe address manager for the peers a
// node gossips with. Addresses are keyed by their host:port form.
type AddrManager struct {
	mtx      sync.RWMutex
	clock    clock.Clock
	maxAddrs int
	self     string
	addrs    map[string]*KnownAddress
}

// New returns an address manager holding at most maxAddrs entries. A
// non-positive maxAddrs selects DefaultMaxAddresses.
func New(clk clock.Clock, maxAddrs int) *AddrManager {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	if maxAddrs <= 0 {
		maxAddrs = DefaultMaxAddresses
	}
	return &AddrManager{
		clock:    clk,
		maxAddrs: maxAddrs,
		addrs:    make(map[string]*KnownAddress),
	}
}

// SetSelf names the node's own address so it is never stored.
func (a *AddrManager) SetSelf(na *types.NetAddress) {
	a.mtx.Lock()
	a.self = na.Key()
	a.mtx.Unlock()
}

// AddAddress records na as seen now.
func (a *AddrManager) AddAddress(na *types.NetAddress) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.addAddress(na, a.clock.Now())
}

// AddAddresses records every address as seen now.
func (a *AddrManager) AddAddresses(addrs []*types.NetAddress) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	now := a.clock.Now()
	for _, na := range addrs {
		a.addAddress(na, now)
	}
}

// addAddress must be called with the lock held.
func (a *AddrManager) addAddress(na *types.NetAddress, now time.Time) {
	if na == nil || na.Port == 0 || na.IP == nil || na.IP.IsUnspecified() {
		return
	}
	key := na.Key()
	if key == a.self {
		return
	}
	if ka, ok := a.addrs[key]; ok {
		ka.LastSeen = now
		return
	}
	if len(a.addrs) >= a.maxAddrs && !a.evictStale(now) {
		log.Trace("Address table full, dropping", "addr", key)
		return
	}
	a.addrs[key] = &KnownAddress{Addr: na, LastSeen: now}
	log.Debug("Added new address", "addr", key, "total", len(a.addrs))
}

// evictStale removes the least recently seen address when it has not been
// seen for staleAfter. It must be called with the lock held.
func (a *AddrManager) evictStale(now time.Time) bool {
	var oldest *KnownAddress
	var oldestKey string
	for key, ka := range a.addrs {
		if oldest == nil || ka.LastSeen.Before(oldest.LastSeen) {
			oldest, oldestKey = ka, key
		}
	}
	if oldest == nil || now.Sub(oldest.LastSeen) < staleAfter {
		return false
	}
	delete(a.addrs, oldestKey)
	return true
}

// Addresses returns every known address in key order.
func (a *AddrManager) Addresses() []*types.NetAddress {
	known := a.KnownAddresses()
	addrs := make([]*types.NetAddress, 0, len(known))
	for _, ka := range known {
		addrs = append(addrs, ka.Addr)
	}
	return addrs
}

// KnownAddresses returns a copy of the table in key order.
func (a *AddrManager) KnownAddresses() []KnownAddress {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	keys := make([]string, 0, len(a.addrs))
	for key := range a.addrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	known := make([]KnownAddress, 0, len(keys))
	for _, key := range keys {
		known = append(known, *a.addrs[key])
	}
	return known
}

// NumAddresses returns the number of addresses known to the address manager.
func (a *AddrManager) NumAddresses() int {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return len(a.addrs)
}

// NeedMoreAddresses returns whether or not the address manager needs more
// addresses.
func (a *AddrManager) NeedMoreAddresses() bool {
	return a.NumAddresses() < needAddressThreshold
}
