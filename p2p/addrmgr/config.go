// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import "time"

const (
	// DefaultMaxAddresses bounds the table when no limit is configured.
	DefaultMaxAddresses = 1024

	// needAddressThreshold is the number of addresses under which the
	// address manager will claim to need more addresses.
	needAddressThreshold = 8

	// staleAfter is how long an address may go unseen before it is the
	// first to be evicted when the table is full.
	staleAfter = 30 * time.Minute
)
