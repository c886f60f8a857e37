package signals

import (
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/deepnoodle-ai/lvm/vm"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

type fakeSignal struct{}

func (fakeSignal) String() string { return "fake" }
func (fakeSignal) Signal()        {}

func newRuntime(t *testing.T) *vm.Runtime {
	t.Helper()
	rt := vm.New(vm.WithExit(func(int) {}), vm.WithColor(false))
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestNotifyResourceExhaustion(t *testing.T) {
	tests := []struct {
		name    string
		notify  func(b *Bridge, ec *vm.ExecutionContext)
		tag     exn.Tag
		payload any
	}{
		{"heap", func(b *Bridge, ec *vm.ExecutionContext) { b.NotifyHeapOverflow(ec, 4096) },
			exn.AsyncHeapOverflow, uint64(4096)},
		{"stack", func(b *Bridge, ec *vm.ExecutionContext) { b.NotifyStackOverflow(ec, 1<<20) },
			exn.AsyncStackOverflow, uint64(1 << 20)},
		{"signal", func(b *Bridge, ec *vm.ExecutionContext) { b.NotifySignal(ec, syscall.SIGTERM) },
			exn.AsyncSignal, int(syscall.SIGTERM)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newRuntime(t)
			ec := rt.Default()
			b := New()

			tt.notify(b, ec)
			e := ec.Protect(func() {
				ec.Poll()
				t.Fatal("poll must raise the pending event")
			})
			require.NotNil(t, e)
			require.Equal(t, tt.tag, e.Tag)
			require.Equal(t, tt.payload, e.Val(0))
			require.NoError(t, b.Close())
		})
	}
}

func TestCloseReportsUndeliveredEvents(t *testing.T) {
	rt := newRuntime(t)
	ec, err := rt.NewContext()
	require.NoError(t, err)
	b := New()

	require.True(t, b.NotifyHeapOverflow(ec, 64))
	require.False(t, b.NotifyStackOverflow(ec, 64))

	err = b.Close()
	require.ErrorIs(t, err, ErrUndelivered)
	require.Contains(t, err.Error(), "heap-overflow(64)")
	require.ErrorIs(t, b.Close(), ErrClosed)

	_, err = b.Watch(ec)
	require.ErrorIs(t, err, ErrClosed)
}

func TestUnsupportedSignal(t *testing.T) {
	rt := newRuntime(t)
	b := New()
	defer b.Close()

	_, err := b.NotifySignal(rt.Default(), fakeSignal{})
	require.ErrorIs(t, err, ErrUnsupportedSignal)
	_, err = b.Watch(rt.Default(), fakeSignal{})
	require.ErrorIs(t, err, ErrUnsupportedSignal)

	n, err := Number(os.Interrupt)
	require.NoError(t, err)
	require.Equal(t, int(syscall.SIGINT), n)
}

func TestWatchStop(t *testing.T) {
	rt := newRuntime(t)
	b := New()
	stop, err := b.Watch(rt.Default(), syscall.SIGTERM)
	require.NoError(t, err)
	stop()
	stop()
	require.NoError(t, b.Close())
}

func TestNotifyAfterClose(t *testing.T) {
	rt := newRuntime(t)
	ec := rt.Default()
	b := New()
	require.NoError(t, b.Close())

	require.False(t, b.NotifyHeapOverflow(ec, 64))
	require.False(t, b.NotifyStackOverflow(ec, 64))
	_, err := b.NotifySignal(ec, syscall.SIGTERM)
	require.ErrorIs(t, err, ErrClosed)

	kind, _ := ec.Pending()
	require.Equal(t, vm.NoInterrupt, kind)
}

func TestCloseConcurrentWithNotify(t *testing.T) {
	rt := newRuntime(t)
	b := New()
	for i := 0; i < 64; i++ {
		ec, err := rt.NewContext()
		require.NoError(t, err)
		require.True(t, b.NotifyHeapOverflow(ec, uint64(i)))
	}

	fresh := make([]*vm.ExecutionContext, 256)
	for i := range fresh {
		ec, err := rt.NewContext()
		require.NoError(t, err)
		fresh[i] = ec
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i, ec := range fresh {
			b.NotifyHeapOverflow(ec, uint64(i))
		}
	}()
	err := b.Close()
	wg.Wait()

	require.ErrorIs(t, err, ErrUndelivered)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(merr.Errors), 64)
}

func TestNotifyKeepsLargeSizes(t *testing.T) {
	rt := newRuntime(t)
	ec := rt.Default()
	b := New()
	defer b.Close()

	const size = uint64(1<<60 | 4096)
	require.True(t, b.NotifyHeapOverflow(ec, size))
	e := ec.Protect(ec.Poll)
	require.NotNil(t, e)
	require.True(t, e.Matches(exn.AsyncHeapOverflow, nil))
	require.Equal(t, size, e.Val(0))
}
