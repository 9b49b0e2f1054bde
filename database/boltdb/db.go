// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package boltdb implements the block database on bbolt.
package boltdb

import (
	"bytes"
	"os"

	bolt "github.com/coreos/bbolt"
	"github.com/pkg/errors"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
)

const dbType = "bolt"

var blocksBucket = []byte("blocks")

type db struct {
	bdb *bolt.DB
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
	if err == bolt.ErrDatabaseNotOpen {
		return database.MakeError(database.ErrDbNotOpen, desc, err)
	}
	return database.MakeError(database.ErrDriverSpecific, desc, errors.WithStack(err))
}

func (d *db) PutBlock(height uint64, b *types.Block) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(database.BlockKey(height), database.EncodeBlock(b))
	})
	return convertErr("failed to put block", err)
}

func (d *db) ForEachBlock(fn func(height uint64, b *types.Block) error) error {
	return d.bdb.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).ForEach(func(k, v []byte) error {
			height, b, err := database.DecodeEntry(k, v)
			if err != nil {
				return err
			}
			return fn(height, b)
		})
	})
}

func (d *db) Truncate(height uint64) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blocksBucket)

		// Deleting under a live cursor skips entries, so collect first.
		var keys [][]byte
		c := bucket.Cursor()
		for k, _ := c.Seek(database.BlockKey(height)); k != nil &&
			bytes.HasPrefix(k, database.BlockKeyPrefix); k, _ = c.Next() {

			keys = append(keys, append([]byte{}, k...))
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
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

	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, convertErr("failed to open bolt", err)
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, convertErr("failed to create bucket", err)
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
