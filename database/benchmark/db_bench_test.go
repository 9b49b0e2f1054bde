package benchmark

// $ go test -run='^$' -bench=. -benchmem

import (
	"path/filepath"
	"testing"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/database"
	_ "github.com/ubilog/ubilog/database/badgerdb"
	_ "github.com/ubilog/ubilog/database/boltdb"
	"github.com/ubilog/ubilog/database/dbtest"
	_ "github.com/ubilog/ubilog/database/ldb"
)

const replayBlocks = 1000

func openBench(b *testing.B, dbType string) database.DB {
	db, err := database.Create(dbType, filepath.Join(b.TempDir(), dbType))
	if err != nil {
		b.Fatal(err)
	}
	return db
}

func benchmarkPut(b *testing.B, dbType string) {
	db := openBench(b, dbType)
	defer db.Close()

	blocks := dbtest.TestBlocks(64)
	b.SetBytes(types.BlockSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := db.PutBlock(uint64(i+1), blocks[i%len(blocks)]); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkReplay(b *testing.B, dbType string) {
	db := openBench(b, dbType)
	defer db.Close()

	for i, blk := range dbtest.TestBlocks(replayBlocks) {
		if err := db.PutBlock(uint64(i+1), blk); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(types.BlockSize * replayBlocks)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		err := db.ForEachBlock(func(uint64, *types.Block) error {
			n++
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
		if n != replayBlocks {
			b.Fatalf("replayed %d blocks", n)
		}
	}
}

func BenchmarkPutBadger(b *testing.B)  { benchmarkPut(b, "badger") }
func BenchmarkPutLevelDB(b *testing.B) { benchmarkPut(b, "leveldb") }
func BenchmarkPutBolt(b *testing.B)    { benchmarkPut(b, "bolt") }

func BenchmarkReplayBadger(b *testing.B)  { benchmarkReplay(b, "badger") }
func BenchmarkReplayLevelDB(b *testing.B) { benchmarkReplay(b, "leveldb") }
func BenchmarkReplayBolt(b *testing.B)    { benchmarkReplay(b, "bolt") }
