// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package badgerdb implements the block database on badger.
package badgerdb

import (
	"os"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
)

const dbType = "badger"

type db struct {
	bdb *badger.DB
}

// Enforce db implements the database.DB interface.
var _ database.DB = (*db)(nil)

func (d *db) Type() string {
	return dbType
}

func convertErr(desc string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(database.Error); ok {
		return err
	}
	return database.MakeError(database.ErrDriverSpecific, desc, errors.WithStack(err))
}

func (d *db) PutBlock(height uint64, b *types.Block) error {
	err := d.bdb.Update(func(txn *badger.Txn) error {
		return txn.Set(database.BlockKey(height), database.EncodeBlock(b))
	})
	return convertErr("failed to put block", err)
}

func (d *db) ForEachBlock(fn func(height uint64, b *types.Block) error) error {
	var fnErr error
	err := d.bdb.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := database.BlockKeyPrefix
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			height, b, err := database.DecodeEntry(item.Key(), value)
			if err != nil {
				return err
			}
			if fnErr = fn(height, b); fnErr != nil {
				return fnErr
			}
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	return convertErr("failed to iterate blocks", err)
}

func (d *db) Truncate(height uint64) error {
	var keys [][]byte
	err := d.bdb.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := database.BlockKeyPrefix
		for it.Seek(database.BlockKey(height)); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, append([]byte{}, it.Item().Key()...))
		}
		return nil
	})
	if err != nil {
		return convertErr("failed to iterate blocks", err)
	}

	err = d.bdb.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return convertErr("failed to truncate", err)
}

func (d *db) Close() error {
	return convertErr("failed to close", d.bdb.Close())
}

func openDB(path string, create bool) (database.DB, error) {
	_, err := os.Stat(path)
	exists := err == nil
	if !create && !exists {
		str := "database " + path + " does not exist"
		return nil, database.MakeError(database.ErrDbDoesNotExist, str, nil)
	}
	if create && exists {
		str := "database " + path + " already exists"
		return nil, database.MakeError(database.ErrDbExists, str, nil)
	}
	if create {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, errors.Wrapf(err, "create %s", path)
		}
	}

	opt := badger.DefaultOptions
	opt.Dir = path
	opt.ValueDir = path
	bdb, err := badger.Open(opt)
	if err != nil {
		return nil, convertErr("failed to open badger", err)
	}
	return &db{bdb: bdb}, nil
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
