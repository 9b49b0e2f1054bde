package ldb

import (
	"testing"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
	"github.com/ubilog/ubilog/database/dbtest"
)

func TestDriver(t *testing.T) {
	dbtest.RunDriverTests(t, dbType)
}

func TestOpenMem(t *testing.T) {
	db, err := OpenMem()
	if err != nil {
		t.Fatal(err)
	}
	blocks := dbtest.TestBlocks(2)
	for i, b := range blocks {
		if err := db.PutBlock(uint64(i+1), b); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Truncate(2); err != nil {
		t.Fatal(err)
	}
	n := 0
	db.ForEachBlock(func(uint64, *types.Block) error {
		n++
		return nil
	})
	if n != 1 {
		t.Fatalf("got %d blocks, want 1", n)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); !database.IsErrorCode(err, database.ErrDbNotOpen) {
		t.Fatalf("second close: %v", err)
	}
}
