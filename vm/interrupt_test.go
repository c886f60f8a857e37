package vm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/stretchr/testify/require"
)

func TestPollWithoutPendingReturns(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ec := rt.Default()
	ec.Poll()
	kind, arg := ec.Pending()
	require.Equal(t, NoInterrupt, kind)
	require.Equal(t, uint64(0), arg)
}

func TestPollRaisesPendingInterrupt(t *testing.T) {
	tests := []struct {
		kind    Interrupt
		arg     uint64
		tag     exn.Tag
		payload any
	}{
		{HeapInterrupt, 4096, exn.AsyncHeapOverflow, uint64(4096)},
		{StackInterrupt, 8192, exn.AsyncStackOverflow, uint64(8192)},
		{SignalInterrupt, 2, exn.AsyncSignal, 2},
		{HeapInterrupt, 1<<60 | 4096, exn.AsyncHeapOverflow, uint64(1<<60 | 4096)},
		{StackInterrupt, ^uint64(0), exn.AsyncStackOverflow, ^uint64(0)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%#x", tt.kind, tt.arg), func(t *testing.T) {
			rt, _ := newTestRuntime(t)
			ec := rt.Default()
			stackOf(ec).Push("outside")

			steps := 0
			e := ec.Protect(func() {
				for i := 0; i < 100; i++ {
					stackOf(ec).Push(i)
					if i == 10 {
						require.True(t, ec.Deliver(tt.kind, tt.arg))
					}
					ec.Poll()
					steps++
				}
			})
			require.Equal(t, 10, steps)
			require.NotNil(t, e)
			require.Equal(t, tt.tag, e.Tag)
			require.Equal(t, tt.payload, e.Val(0))
			require.True(t, e.IsAsync())
			require.Equal(t, 1, stackOf(ec).Depth())

			kind, _ := ec.Pending()
			require.Equal(t, NoInterrupt, kind)
		})
	}
}

func TestDeliverPriority(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ec := rt.Default()

	require.False(t, ec.Deliver(NoInterrupt, 1))
	require.True(t, ec.Deliver(SignalInterrupt, 2))
	require.False(t, ec.Deliver(SignalInterrupt, 15))
	require.True(t, ec.Deliver(StackInterrupt, 100))
	require.False(t, ec.Deliver(SignalInterrupt, 2))
	require.True(t, ec.Deliver(HeapInterrupt, 64))
	require.False(t, ec.Deliver(StackInterrupt, 1))

	kind, arg := ec.Pending()
	require.Equal(t, HeapInterrupt, kind)
	require.Equal(t, uint64(64), arg)
}

func TestDeliverFromAnotherGoroutine(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ec := rt.Default()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ec.Deliver(SignalInterrupt, 15)
	}()
	wg.Wait()

	e := ec.Protect(func() {
		for {
			ec.Poll()
		}
	})
	require.True(t, e.Matches(exn.AsyncSignal, nil))
	require.Equal(t, 15, e.Val(0))
}
