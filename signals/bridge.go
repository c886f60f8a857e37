// Package signals bridges asynchronous events into execution contexts. OS
// signals and resource exhaustion notices are recorded on the target
// context with a single atomic store; the context raises them as
// asynchronous exceptions at its next safe point (vm.ExecutionContext.Poll).
package signals

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/deepnoodle-ai/lvm/vm"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned when using a bridge after Close.
	ErrClosed = errors.New("signal bridge closed")
	// ErrUnsupportedSignal is returned for signals without a number.
	ErrUnsupportedSignal = errors.New("unsupported signal")
	// ErrUndelivered is reported by Close for events that were recorded
	// but never raised.
	ErrUndelivered = errors.New("event never raised")
)

// DefaultSignals are watched when Watch is given no signals.
var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used to trace deliveries.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// Bridge routes asynchronous events to execution contexts.
type Bridge struct {
	logger zerolog.Logger

	mu      sync.Mutex
	watches []*watch
	targets map[*vm.ExecutionContext]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type watch struct {
	ec      *vm.ExecutionContext
	ch      chan os.Signal
	stopped bool
}

// New creates a bridge with no registrations.
func New(options ...Option) *Bridge {
	b := &Bridge{
		logger:  zerolog.Nop(),
		targets: map[*vm.ExecutionContext]struct{}{},
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Watch routes the given OS signals to ec until the returned stop function
// is called or the bridge is closed.
func (b *Bridge) Watch(ec *vm.ExecutionContext, sigs ...os.Signal) (stop func(), err error) {
	if len(sigs) == 0 {
		sigs = DefaultSignals
	}
	for _, sig := range sigs {
		if _, err := Number(sig); err != nil {
			return nil, err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	w := &watch{ec: ec, ch: make(chan os.Signal, 1)}
	b.watches = append(b.watches, w)
	b.targets[ec] = struct{}{}
	signal.Notify(w.ch, sigs...)

	b.wg.Add(1)
	go b.forward(w)

	b.logger.Debug().Str("context", ec.String()).Int("signals", len(sigs)).Msg("watching signals")
	return func() { b.stop(w) }, nil
}

func (b *Bridge) forward(w *watch) {
	defer b.wg.Done()
	for sig := range w.ch {
		n, err := Number(sig)
		if err != nil {
			continue
		}
		recorded := w.ec.Deliver(vm.SignalInterrupt, uint64(n))
		b.logger.Debug().
			Str("context", w.ec.String()).
			Str("signal", Name(n)).
			Bool("recorded", recorded).
			Msg("signal delivered")
	}
}

func (b *Bridge) stop(w *watch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked(w)
}

func (b *Bridge) stopLocked(w *watch) {
	if w.stopped {
		return
	}
	w.stopped = true
	signal.Stop(w.ch)
	close(w.ch)
}

// NotifySignal records a signal for ec as if it had been delivered by the
// OS. A scheduler can use it to enforce a timeout.
func (b *Bridge) NotifySignal(ec *vm.ExecutionContext, sig os.Signal) (bool, error) {
	n, err := Number(sig)
	if err != nil {
		return false, err
	}
	return b.record(ec, vm.SignalInterrupt, uint64(n))
}

// NotifyHeapOverflow records that an allocation of size bytes failed. It
// reports false when a higher priority event is pending or the bridge is
// closed.
func (b *Bridge) NotifyHeapOverflow(ec *vm.ExecutionContext, size uint64) bool {
	recorded, _ := b.record(ec, vm.HeapInterrupt, size)
	return recorded
}

// NotifyStackOverflow records that the evaluation stack reached size.
func (b *Bridge) NotifyStackOverflow(ec *vm.ExecutionContext, size uint64) bool {
	recorded, _ := b.record(ec, vm.StackInterrupt, size)
	return recorded
}

func (b *Bridge) record(ec *vm.ExecutionContext, kind vm.Interrupt, arg uint64) (bool, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false, ErrClosed
	}
	b.targets[ec] = struct{}{}
	recorded := ec.Deliver(kind, arg)
	b.mu.Unlock()

	b.logger.Debug().
		Str("context", ec.String()).
		Stringer("event", kind).
		Uint64("arg", arg).
		Bool("recorded", recorded).
		Msg("async event")
	return recorded, nil
}

// Close stops all signal watches and waits for the forwarding goroutines.
// Events still pending on a context are reported in the returned error.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	for _, w := range b.watches {
		b.stopLocked(w)
	}
	targets := make([]*vm.ExecutionContext, 0, len(b.targets))
	for ec := range b.targets {
		targets = append(targets, ec)
	}
	b.targets = nil
	b.mu.Unlock()

	b.wg.Wait()

	var result *multierror.Error
	for _, ec := range targets {
		if kind, arg := ec.Pending(); kind != vm.NoInterrupt {
			result = multierror.Append(result,
				fmt.Errorf("context %s: %s(%d): %w", ec, kind, arg, ErrUndelivered))
		}
	}
	return result.ErrorOrNil()
}

// Number returns the numeric value of an OS signal.
func Number(sig os.Signal) (int, error) {
	if s, ok := sig.(syscall.Signal); ok {
		return int(s), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedSignal, sig)
}
