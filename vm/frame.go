package vm

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/deepnoodle-ai/lvm/exn"
)

var (
	// ErrNoFrame is returned for a zero FrameHandle.
	ErrNoFrame = errors.New("no frame")
	// ErrFrameOrder is returned when uninstalling a frame that is not the
	// current head of its context.
	ErrFrameOrder = errors.New("frame is not the current head")
	// ErrForeignFrame is returned when a frame is presented to a context
	// that did not install it.
	ErrForeignFrame = errors.New("frame belongs to another context")
	// ErrFrameConsumed is returned when a frame is uninstalled twice.
	ErrFrameConsumed = errors.New("frame already consumed")
)

// Frame is the record of an installed protected region. The frame pointer
// is also the value that unwinds the goroutine stack to the region's
// deferred recovery site, which is the frame's resume point.
type Frame struct {
	enclosing  *Frame
	ctx        *ExecutionContext
	savedDepth int
	delivered  *exn.Exception
	consumed   bool
}

// FrameHandle identifies an installed frame. The zero value identifies no
// frame.
type FrameHandle struct {
	f *Frame
}

// Valid reports whether the handle identifies a frame.
func (h FrameHandle) Valid() bool {
	return h.f != nil
}

// RootDepth returns the root depth captured when the frame was installed.
func (h FrameHandle) RootDepth() int {
	if h.f == nil {
		return 0
	}
	return h.f.savedDepth
}

// Install pushes a new frame as the head of the context, capturing the
// current root depth. Exceeding the frame limit raises a stack overflow on
// the enclosing frame. Installing on a closed context panics with an error
// wrapping ErrClosed.
func (ec *ExecutionContext) Install() FrameHandle {
	if ec.closed {
		panic(fmt.Errorf("install on context %s: %w", ec, ErrClosed))
	}
	if ec.depth >= ec.rt.maxFrames {
		ec.RaiseStackOverflow(uint64(ec.depth))
	}
	f := &Frame{
		enclosing:  ec.head,
		ctx:        ec,
		savedDepth: ec.roots.Depth(),
	}
	ec.head = f
	ec.depth++
	ec.rt.observer.OnInstall(FrameEvent{Context: ec.String(), Depth: ec.depth, RootDepth: f.savedDepth})
	return FrameHandle{f: f}
}

// Uninstall pops the frame identified by h on normal exit from its region.
// Only the current head may be uninstalled; the stack is left untouched on
// error.
func (ec *ExecutionContext) Uninstall(h FrameHandle) error {
	f := h.f
	switch {
	case f == nil:
		return ErrNoFrame
	case f.ctx != ec:
		return ErrForeignFrame
	case f.consumed:
		return ErrFrameConsumed
	case ec.head != f:
		return fmt.Errorf("%w: %d frames above it", ErrFrameOrder, ec.framesAbove(f))
	}
	ec.pop(f)
	ec.rt.observer.OnUninstall(FrameEvent{Context: ec.String(), Depth: ec.depth, RootDepth: f.savedDepth})
	return nil
}

func (ec *ExecutionContext) framesAbove(target *Frame) int {
	n := 0
	for f := ec.head; f != nil && f != target; f = f.enclosing {
		n++
	}
	return n
}

func (ec *ExecutionContext) pop(f *Frame) {
	ec.head = f.enclosing
	ec.depth--
	f.consumed = true
	f.enclosing = nil
}

// Catch must be called from the deferred function of the region that
// installed h, with the value returned by recover:
//
//	h := ec.Install()
//	defer func() {
//		if e, ok := ec.Catch(h, recover()); ok {
//			// handle e
//		}
//	}()
//
// It returns the delivered exception when the transfer targeted h, consuming
// the frame. Go runtime faults that have a classification (integer division
// by zero, out-of-range indexing, nil dereference) are converted into
// exceptions landing on h. Any other panic ends the region: the frame is
// dropped and the panic continues.
func (ec *ExecutionContext) Catch(h FrameHandle, recovered any) (*exn.Exception, bool) {
	f := h.f
	if recovered == nil {
		return nil, false
	}
	switch v := recovered.(type) {
	case *Frame:
		if v == f {
			// Deferred calls of the abandoned region may have pushed roots
			// while the stack unwound.
			if ec.roots.Depth() > f.savedDepth {
				ec.roots.SetDepth(f.savedDepth)
			}
			ec.pop(f)
			e := f.delivered
			ec.rt.observer.OnLand(RaiseEvent{Context: ec.String(), Exception: e, Depth: ec.depth})
			return e, true
		}
	case runtime.Error:
		if e, ok := classifyRuntimeError(v); ok && f != nil && ec.head == f {
			f.delivered = e
			ec.roots.SetDepth(f.savedDepth)
			ec.pop(f)
			ec.logger.Debug().Object("exception", e).Msg("go runtime fault converted")
			ec.rt.observer.OnLand(RaiseEvent{Context: ec.String(), Exception: e, Depth: ec.depth})
			return e, true
		}
	}
	if f != nil && ec.head == f {
		ec.pop(f)
	}
	panic(recovered)
}

func classifyRuntimeError(err runtime.Error) (*exn.Exception, bool) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "integer divide by zero"):
		return exn.Must(exn.Arithmetic, exn.IntZeroDivide).WithCause(err), true
	case strings.Contains(msg, "integer overflow"):
		return exn.Must(exn.Arithmetic, exn.IntOverflow).WithCause(err), true
	case strings.Contains(msg, "index out of range"), strings.Contains(msg, "slice bounds out of range"):
		return exn.Must(exn.Runtime, exn.OutOfBounds, msg).WithCause(err), true
	case strings.Contains(msg, "nil pointer dereference"):
		return exn.Must(exn.Runtime, exn.RuntimeError, msg).WithCause(err), true
	default:
		return nil, false
	}
}

// Protect runs body as a protected region. It returns nil when body
// completes normally, or the exception delivered to the region otherwise.
// The handler logic runs in the caller after Protect returns, with the root
// depth already restored to its value at entry.
func (ec *ExecutionContext) Protect(body func()) (caught *exn.Exception) {
	h := ec.Install()
	defer func() {
		if e, ok := ec.Catch(h, recover()); ok {
			caught = e
		}
	}()
	body()
	if err := ec.Uninstall(h); err != nil {
		// A region that leaves inner frames installed is a programming
		// error, not an exception of the program being run.
		panic(fmt.Errorf("protected region exit: %w", err))
	}
	return nil
}

// Try runs body as a protected region and passes any delivered exception to
// handler. The handler runs outside the region, so raising from it reaches
// the next enclosing frame.
func (ec *ExecutionContext) Try(body func(), handler func(e *exn.Exception)) {
	if e := ec.Protect(body); e != nil {
		handler(e)
	}
}
