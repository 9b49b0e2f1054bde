// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"github.com/ubilog/ubilog/core/types"
)

// DB persists the main chain as a sequence of blocks indexed by height.
// Height 1 is the first block after the genesis sentinel, which is never
// stored.
//
// Implementations must be safe for concurrent use.
type DB interface {
	// Type returns the database driver type the current database instance
	// was created with.
	Type() string

	// PutBlock stores b at the given height, replacing any block there.
	PutBlock(height uint64, b *types.Block) error

	// ForEachBlock calls fn for every stored block in ascending height
	// order. Iteration stops at the first error, which is returned.
	ForEachBlock(fn func(height uint64, b *types.Block) error) error

	// Truncate removes every block at or above height.
	Truncate(height uint64) error

	// Close cleanly shuts down the database and syncs all data.
	Close() error
}

// Driver defines a structure for backend drivers to use when they registered
// themselves as a backend which implements the DB interface.
type Driver struct {
	// DbType is the identifier used to uniquely identify a specific
	// database driver.  There can be only one driver with the same name.
	DbType string

	// Create is the function that will be invoked with all user-specified
	// arguments to create the database.  This function must return
	// ErrDbExists if the database already exists.
	Create func(path string) (DB, error)

	// Open is the function that will be invoked with all user-specified
	// arguments to open the database.  This function must return
	// ErrDbDoesNotExist if the database has not already been created.
	Open func(path string) (DB, error)
}
