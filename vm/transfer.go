package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/lvm/exn"
)

// Raise transfers control to the nearest frame of the context, delivering e.
// It never returns. With no frame installed the runtime's fatal path reports
// e and terminates the process.
//
// Between locating the frame and unwinding, Raise only stores the exception,
// rewinds the root cursor and panics with the frame pointer: it performs no
// allocation and takes no lock. Raising on a closed context panics with an
// error wrapping ErrClosed.
func (ec *ExecutionContext) Raise(e *exn.Exception) {
	if ec.closed {
		panic(fmt.Errorf("raise %s on context %s: %w", e.Tag, ec, ErrClosed))
	}
	f := ec.head
	if f == nil {
		ec.rt.fatal(ec, e)
	}
	f.delivered = e
	ec.roots.SetDepth(f.savedDepth)
	panic(f)
}

// Reraise passes an exception received by a handler on to the next
// enclosing frame, unchanged.
func (ec *ExecutionContext) Reraise(e *exn.Exception) {
	ec.raise(e)
}

func (ec *ExecutionContext) raise(e *exn.Exception) {
	ec.rt.observer.OnRaise(RaiseEvent{Context: ec.String(), Exception: e, Depth: ec.depth})
	ec.Raise(e)
}
