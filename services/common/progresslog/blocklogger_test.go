package progresslog

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/log"
)

func TestLogBlockHeight(t *testing.T) {
	start := time.Unix(1600000000, 0)
	clk := clock.NewTestClock(start)
	pl := NewBlockProgressLogger("Processed", log.New(log.Ctx{"module": "test"}), clk)
	block := &types.Block{Time: uint64(start.UnixNano() / int64(time.Millisecond))}

	require.False(t, pl.LogBlockHeight(1, block))
	clk.SetTime(start.Add(5 * time.Second))
	require.False(t, pl.LogBlockHeight(2, block))

	clk.SetTime(start.Add(DefaultLogInterval))
	require.True(t, pl.LogBlockHeight(3, block))
	require.Zero(t, pl.receivedLogBlocks)

	// The interval restarts after a message.
	require.False(t, pl.LogBlockHeight(4, block))

	pl.SetLastLogTime(start)
	require.True(t, pl.LogBlockHeight(5, block))
}
