// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ldb implements the block database on goleveldb.
package ldb

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
)

const dbType = "leveldb"

type db struct {
	mtx    sync.RWMutex
	ldb    *leveldb.DB
	closed bool
}

// Enforce db implements the database.DB interface.
var _ database.DB = (*db)(nil)

func (d *db) Type() string {
	return dbType
}

func (d *db) checkOpen() error {
	if d.closed {
		return database.MakeError(database.ErrDbNotOpen, "database is not open", nil)
	}
	return nil
}

func convertErr(desc string, err error) error {
	if err == nil {
		return nil
	}
	return database.MakeError(database.ErrDriverSpecific, desc, errors.WithStack(err))
}

func (d *db) PutBlock(height uint64, b *types.Block) error {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	err := d.ldb.Put(database.BlockKey(height), database.EncodeBlock(b), nil)
	return convertErr("failed to put block", err)
}

func (d *db) ForEachBlock(fn func(height uint64, b *types.Block) error) error {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if err := d.checkOpen(); err != nil {
		return err
	}

	iter := d.ldb.NewIterator(util.BytesPrefix(database.BlockKeyPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		height, b, err := database.DecodeEntry(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if err := fn(height, b); err != nil {
			return err
		}
	}
	return convertErr("failed to iterate blocks", iter.Error())
}

func (d *db) Truncate(height uint64) error {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if err := d.checkOpen(); err != nil {
		return err
	}

	rng := util.BytesPrefix(database.BlockKeyPrefix)
	rng.Start = database.BlockKey(height)
	iter := d.ldb.NewIterator(rng, nil)
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return convertErr("failed to iterate blocks", err)
	}
	return convertErr("failed to truncate", d.ldb.Write(batch, nil))
}

func (d *db) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.closed = true
	return convertErr("failed to close", d.ldb.Close())
}

func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

func openDB(path string, create bool) (database.DB, error) {
	if !create && !fileExists(path) {
		str := "database " + path + " does not exist"
		return nil, database.MakeError(database.ErrDbDoesNotExist, str, nil)
	}
	if create && fileExists(path) {
		str := "database " + path + " already exists"
		return nil, database.MakeError(database.ErrDbExists, str, nil)
	}
	if create {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, errors.Wrapf(err, "create %s", path)
		}
	}
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, convertErr("failed to open leveldb", err)
	}
	return &db{ldb: ldb}, nil
}

// OpenMem returns a database kept in memory, for tests and tools.
func OpenMem() (database.DB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, convertErr("failed to open memory leveldb", err)
	}
	return &db{ldb: ldb}, nil
}

func init() {
	driver := database.Driver{
		DbType: dbType,
		Create: func(path string) (database.DB, error) { return openDB(path, true) },
		Open:   func(path string) (database.DB, error) { return openDB(path, false) },
	}
	if err := database.RegisterDriver(driver); err != nil {
		panic("failed to register database driver '" + dbType + "': " + err.Error())
	}
}
