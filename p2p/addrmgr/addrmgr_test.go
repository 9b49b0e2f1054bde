package addrmgr

import (
	"net"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"

	"github.com/ubilog/ubilog/core/types"
)

var testStart = time.Unix(1600000000, 0)

func addr(ip string, port uint16) *types.NetAddress {
	return types.NewNetAddressIPPort(net.ParseIP(ip), port)
}

func TestAddAddresses(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	am := New(clk, 0)
	require.True(t, am.NeedMoreAddresses())

	am.AddAddresses([]*types.NetAddress{
		addr("10.0.0.2", 16936),
		addr("10.0.0.1", 16936),
		addr("::ffff:10.0.0.1", 16936), // same as 10.0.0.1
		addr("0.0.0.0", 16936),
		addr("10.0.0.3", 0),
		nil,
	})
	require.Equal(t, 2, am.NumAddresses())

	got := am.Addresses()
	require.Equal(t, "10.0.0.1:16936", got[0].String())
	require.Equal(t, "10.0.0.2:16936", got[1].String())

	clk.SetTime(testStart.Add(time.Minute))
	am.AddAddress(addr("10.0.0.2", 16936))
	known := am.KnownAddresses()
	require.Equal(t, testStart, known[0].LastSeen)
	require.Equal(t, testStart.Add(time.Minute), known[1].LastSeen)
}

func TestSkipsSelf(t *testing.T) {
	am := New(clock.NewTestClock(testStart), 0)
	am.SetSelf(addr("127.0.0.1", 16936))
	am.AddAddress(addr("127.0.0.1", 16936))
	require.Zero(t, am.NumAddresses())
}

func TestCapacity(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	am := New(clk, 2)
	am.AddAddress(addr("10.0.0.1", 1))
	am.AddAddress(addr("10.0.0.2", 1))
	am.AddAddress(addr("10.0.0.3", 1))
	require.Equal(t, 2, am.NumAddresses())

	// Once the oldest entry goes stale it makes room.
	clk.SetTime(testStart.Add(staleAfter))
	am.AddAddress(addr("10.0.0.2", 1))
	am.AddAddress(addr("10.0.0.3", 1))
	require.Equal(t, 2, am.NumAddresses())
	keys := []string{}
	for _, na := range am.Addresses() {
		keys = append(keys, na.Key())
	}
	require.Equal(t, []string{"10.0.0.2:1", "10.0.0.3:1"}, keys)
}
