// Package vm implements exception handling for the Lazy VM runtime:
// execution contexts with their stacks of protected-region frames, the
// non-local transfer from a raise site to the nearest frame, the raise
// constructors used by the interpreter and primitives, and the fatal path
// taken when no frame is installed.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/deepnoodle-ai/lvm/roots"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxFrames is the default limit on nested protected regions.
	DefaultMaxFrames = 1024

	// DefaultRootCapacity is the initial capacity of a context's root stack.
	DefaultRootCapacity = 256

	// DefaultFailureStatus is the exit status for uncaught exceptions other
	// than a deliberate exit. A program that exits deliberately with the same
	// status is indistinguishable by status alone; see WithFailureStatus.
	DefaultFailureStatus = 2
)

var (
	// ErrClosed is returned when using a runtime or context after Close.
	ErrClosed = errors.New("runtime closed")
	// ErrFramesInstalled is returned when a context is closed while it
	// still has protected regions installed.
	ErrFramesInstalled = errors.New("frames still installed")
)

// Runtime owns the default execution context and the configuration shared by
// every context: how uncaught exceptions are reported and how the process is
// terminated.
type Runtime struct {
	logger        zerolog.Logger
	exit          func(int)
	failureStatus int
	diagnostics   io.Writer
	color         bool
	newTracker    func() roots.Tracker
	maxFrames     int
	observer      Observer

	mu       sync.Mutex
	contexts map[uuid.UUID]*ExecutionContext
	def      *ExecutionContext
	closed   bool
}

// New creates a runtime and its default execution context.
func New(options ...Option) *Runtime {
	rt := &Runtime{
		logger:        zerolog.Nop(),
		exit:          os.Exit,
		failureStatus: DefaultFailureStatus,
		diagnostics:   os.Stderr,
		color:         true,
		newTracker: func() roots.Tracker {
			return roots.NewStack(DefaultRootCapacity)
		},
		maxFrames: DefaultMaxFrames,
		observer:  NoOpObserver{},
		contexts:  map[uuid.UUID]*ExecutionContext{},
	}
	for _, opt := range options {
		opt(rt)
	}
	rt.def = rt.newContext("default")
	return rt
}

// Default returns the context used by flows that do not name one.
func (rt *Runtime) Default() *ExecutionContext {
	return rt.def
}

// NewContext creates an execution context with an empty frame stack and a
// fresh root tracker.
func (rt *Runtime) NewContext() (*ExecutionContext, error) {
	rt.mu.Lock()
	closed := rt.closed
	rt.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return rt.newContext(""), nil
}

func (rt *Runtime) newContext(name string) *ExecutionContext {
	id := uuid.Must(uuid.NewV4())
	ec := &ExecutionContext{
		id:    id,
		name:  name,
		label: contextLabel(name, id),
		rt:    rt,
		roots: rt.newTracker(),
	}
	ec.logger = rt.logger.With().Str("context", ec.String()).Logger()
	rt.mu.Lock()
	rt.contexts[id] = ec
	rt.mu.Unlock()
	return ec
}

// Active returns the execution context carried by ctx, or the default
// context when ctx names none or names a context of another runtime.
func (rt *Runtime) Active(ctx context.Context) *ExecutionContext {
	if ec, ok := FromContext(ctx); ok && ec.rt == rt {
		return ec
	}
	return rt.def
}

// Contexts returns the number of open execution contexts, including the
// default context.
func (rt *Runtime) Contexts() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.contexts)
}

func (rt *Runtime) release(ec *ExecutionContext) {
	rt.mu.Lock()
	delete(rt.contexts, ec.id)
	rt.mu.Unlock()
}

// Close tears down every open context, the default one last. Contexts that
// still have frames installed are reported in the returned error.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return ErrClosed
	}
	rt.closed = true
	open := make([]*ExecutionContext, 0, len(rt.contexts))
	for _, ec := range rt.contexts {
		if ec != rt.def {
			open = append(open, ec)
		}
	}
	rt.mu.Unlock()

	var result *multierror.Error
	for _, ec := range append(open, rt.def) {
		if ec.closed {
			continue
		}
		if err := ec.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (rt *Runtime) String() string {
	return fmt.Sprintf("runtime(contexts=%d)", rt.Contexts())
}
