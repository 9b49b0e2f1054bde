// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dbtest holds the behaviour every database driver must share.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
)

// TestBlocks returns n distinct blocks linked by Prev.
func TestBlocks(n int) []*types.Block {
	blocks := make([]*types.Block, 0, n)
	prev := &types.Block{}
	for i := 0; i < n; i++ {
		b := &types.Block{
			Prev:  prev.BlockHash(),
			Time:  uint64(1000 * (i + 1)),
			Name:  uint64(i),
			Nonce: uint64(i * 7),
		}
		b.Body[0] = byte(i)
		b.Body[types.BodySize-1] = byte(255 - i)
		blocks = append(blocks, b)
		prev = b
	}
	return blocks
}

func collect(t *testing.T, db database.DB) ([]uint64, []*types.Block) {
	var heights []uint64
	var blocks []*types.Block
	err := db.ForEachBlock(func(height uint64, b *types.Block) error {
		heights = append(heights, height)
		blocks = append(blocks, b)
		return nil
	})
	require.NoError(t, err)
	return heights, blocks
}

// RunDriverTests exercises the driver registered as dbType in fresh
// directories under t.TempDir.
func RunDriverTests(t *testing.T, dbType string) {
	t.Run("create then open", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db")

		_, err := database.Open(dbType, path)
		require.True(t, database.IsErrorCode(err, database.ErrDbDoesNotExist), "%v", err)

		db, err := database.Create(dbType, path)
		require.NoError(t, err)
		require.Equal(t, dbType, db.Type())
		require.NoError(t, db.Close())

		_, err = database.Create(dbType, path)
		require.True(t, database.IsErrorCode(err, database.ErrDbExists), "%v", err)

		db, err = database.Open(dbType, path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("ascending order", func(t *testing.T) {
		db, err := database.Create(dbType, filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer db.Close()

		blocks := TestBlocks(300)
		// Insert out of order; 256 checks the key is not little-endian.
		for i := len(blocks) - 1; i >= 0; i-- {
			require.NoError(t, db.PutBlock(uint64(i+1), blocks[i]))
		}

		heights, got := collect(t, db)
		require.Len(t, got, len(blocks))
		for i := range blocks {
			require.Equal(t, uint64(i+1), heights[i])
			require.Equal(t, blocks[i].BlockHash(), got[i].BlockHash())
		}
	})

	t.Run("overwrite and truncate", func(t *testing.T) {
		db, err := database.Create(dbType, filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer db.Close()

		blocks := TestBlocks(6)
		for i, b := range blocks {
			require.NoError(t, db.PutBlock(uint64(i+1), b))
		}
		require.NoError(t, db.PutBlock(2, blocks[5]))
		require.NoError(t, db.Truncate(4))

		heights, got := collect(t, db)
		require.Equal(t, []uint64{1, 2, 3}, heights)
		require.Equal(t, blocks[5].BlockHash(), got[1].BlockHash())

		require.NoError(t, db.Truncate(100))
		heights, _ = collect(t, db)
		require.Len(t, heights, 3)
	})

	t.Run("reopen keeps blocks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db")
		db, err := database.Create(dbType, path)
		require.NoError(t, err)
		blocks := TestBlocks(3)
		for i, b := range blocks {
			require.NoError(t, db.PutBlock(uint64(i+1), b))
		}
		require.NoError(t, db.Close())

		db, err = database.OpenOrCreate(dbType, path)
		require.NoError(t, err)
		defer db.Close()
		_, got := collect(t, db)
		require.Len(t, got, 3)
		require.Equal(t, blocks[2].Body, got[2].Body)
	})

	t.Run("stop on callback error", func(t *testing.T) {
		db, err := database.Create(dbType, filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer db.Close()

		for i, b := range TestBlocks(5) {
			require.NoError(t, db.PutBlock(uint64(i+1), b))
		}
		stop := database.MakeError(database.ErrCorruption, "stop", nil)
		calls := 0
		err = db.ForEachBlock(func(uint64, *types.Block) error {
			calls++
			if calls == 2 {
				return stop
			}
			return nil
		})
		require.Equal(t, stop, err)
		require.Equal(t, 2, calls)
	})
}
