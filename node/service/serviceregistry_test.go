package service

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events *[]string
	name   string
	fail   bool
}

func (r *recorder) Start() error {
	if r.fail {
		return errors.New("boom")
	}
	*r.events = append(*r.events, "start "+r.name)
	return nil
}

func (r *recorder) Stop() error {
	*r.events = append(*r.events, "stop "+r.name)
	return nil
}

type other struct{ recorder }

type failing struct{ recorder }

func TestStartStopOrder(t *testing.T) {
	var events []string
	reg := NewServiceRegistry()
	a := &recorder{events: &events, name: "a"}
	b := &other{recorder{events: &events, name: "b"}}
	require.NoError(t, reg.RegisterService(a))
	require.NoError(t, reg.RegisterService(b))
	require.Error(t, reg.RegisterService(&recorder{events: &events}))
	require.Equal(t, 2, reg.Len())

	require.NoError(t, reg.StartAll())
	require.NoError(t, reg.StopAll())
	require.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, events)

	var fetched *other
	require.NoError(t, reg.FetchService(&fetched))
	require.Equal(t, b, fetched)
	require.Error(t, reg.FetchService(fetched))
}

func TestStartFailureStopsStarted(t *testing.T) {
	var events []string
	reg := NewServiceRegistry()
	require.NoError(t, reg.RegisterService(&recorder{events: &events, name: "a"}))
	require.NoError(t, reg.RegisterService(&failing{recorder{events: &events, name: "c", fail: true}}))

	require.Error(t, reg.StartAll())
	require.Equal(t, []string{"start a", "stop a"}, events)

	// Nothing is left running.
	require.NoError(t, reg.StopAll())
	require.Len(t, events, 2)
}
