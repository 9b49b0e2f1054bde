// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2016-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/log"
)

// DefaultLogInterval is the least time between two progress messages.
const DefaultLogInterval = 10 * time.Second

// BlockProgressLogger provides periodic logging for other services in order
// to show users progress of certain "actions" involving many blocks, such as
// replaying the database or catching up with peers.
type BlockProgressLogger struct {
	sync.Mutex
	receivedLogBlocks int64
	lastBlockLogTime  time.Time

	clock           clock.Clock
	interval        time.Duration
	subsystemLogger log.Logger
	progressAction  string
}

// NewBlockProgressLogger returns a new block progress logger.
// The progress message is templated as follows:
//  {progressAction} {numProcessed} {blocks|block} in the last {timePeriod}
//  (height {lastBlockHeight}, {lastBlockTime})
func NewBlockProgressLogger(progressMessage string, logger log.Logger, clk clock.Clock) *BlockProgressLogger {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &BlockProgressLogger{
		lastBlockLogTime: clk.Now(),
		clock:            clk,
		interval:         DefaultLogInterval,
		progressAction:   progressMessage,
		subsystemLogger:  logger,
	}
}

// LogBlockHeight counts one block and logs the totals when the interval has
// passed since the last message. It reports whether a message was logged.
func (b *BlockProgressLogger) LogBlockHeight(height uint64, block *types.Block) bool {
	b.Lock()
	defer b.Unlock()
	b.receivedLogBlocks++

	now := b.clock.Now()
	duration := now.Sub(b.lastBlockLogTime)
	if duration < b.interval {
		return false
	}

	// Truncate the duration to 10s of milliseconds.
	durationMillis := int64(duration / time.Millisecond)
	tDuration := 10 * time.Millisecond * time.Duration(durationMillis/10)

	blockStr := "blocks"
	if b.receivedLogBlocks == 1 {
		blockStr = "block"
	}
	blockTime := time.Unix(0, int64(block.Time)*int64(time.Millisecond))
	b.subsystemLogger.Info(fmt.Sprintf("%s %d %s in the last %s (height %d, %s)",
		b.progressAction, b.receivedLogBlocks, blockStr, tDuration,
		height, blockTime.UTC().Format(time.RFC3339)))

	b.receivedLogBlocks = 0
	b.lastBlockLogTime = now
	return true
}

// SetLastLogTime restarts the interval from t.
func (b *BlockProgressLogger) SetLastLogTime(t time.Time) {
	b.Lock()
	b.lastBlockLogTime = t
	b.Unlock()
}
