package vm

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/deepnoodle-ai/lvm/roots"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// ExecutionContext is one flow of control. It owns its frame stack and its
// root-tracking cursor; neither is ever shared with another context. A
// context must only be driven by one goroutine at a time. The pending
// interrupt slot is the only field written from other goroutines.
type ExecutionContext struct {
	id     uuid.UUID
	name   string
	label  string
	rt     *Runtime
	head   *Frame
	depth  int
	roots  roots.Tracker
	logger zerolog.Logger
	closed bool

	pending atomic.Pointer[pendingEvent]
}

// ID returns the unique id of the context.
func (ec *ExecutionContext) ID() uuid.UUID {
	return ec.id
}

// Runtime returns the runtime that created the context.
func (ec *ExecutionContext) Runtime() *Runtime {
	return ec.rt
}

// Roots returns the context's root-tracking cursor.
func (ec *ExecutionContext) Roots() roots.Tracker {
	return ec.roots
}

// Depth returns the number of installed frames.
func (ec *ExecutionContext) Depth() int {
	return ec.depth
}

// Head returns a handle to the current frame. The handle is zero when no
// frame is installed.
func (ec *ExecutionContext) Head() FrameHandle {
	return FrameHandle{f: ec.head}
}

func (ec *ExecutionContext) String() string {
	return ec.label
}

func contextLabel(name string, id uuid.UUID) string {
	if name != "" {
		return fmt.Sprintf("%s/%s", name, id)
	}
	return id.String()
}

// Close releases the context. It fails if protected regions are still
// installed; the frames are dropped either way.
func (ec *ExecutionContext) Close() error {
	if ec.closed {
		return fmt.Errorf("context %s: %w", ec, ErrClosed)
	}
	ec.closed = true
	ec.rt.release(ec)
	if ec.depth == 0 {
		return nil
	}
	leaked := ec.depth
	ec.logger.Warn().Int("frames", leaked).Msg("context closed with installed frames")
	for f := ec.head; f != nil; f = f.enclosing {
		f.consumed = true
	}
	ec.head = nil
	ec.depth = 0
	return fmt.Errorf("context %s: %w: %d", ec, ErrFramesInstalled, leaked)
}

type contextKey string

const executionContextKey = contextKey("lvm:exec")

// WithExecutionContext returns a copy of ctx that names ec as the active
// execution context.
func WithExecutionContext(ctx context.Context, ec *ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, ec)
}

// FromContext returns the execution context named by ctx, if any.
func FromContext(ctx context.Context) (*ExecutionContext, bool) {
	if ec, ok := ctx.Value(executionContextKey).(*ExecutionContext); ok && ec != nil {
		return ec, true
	}
	return nil, false
}
