package vm

// Interrupt identifies an asynchronous event waiting to be raised on a
// context.
type Interrupt uint8

const (
	NoInterrupt Interrupt = iota
	SignalInterrupt
	StackInterrupt
	HeapInterrupt
)

func (i Interrupt) String() string {
	switch i {
	case SignalInterrupt:
		return "signal"
	case StackInterrupt:
		return "stack-overflow"
	case HeapInterrupt:
		return "heap-overflow"
	default:
		return "none"
	}
}

// pendingEvent is published whole, so the argument keeps all 64 bits.
type pendingEvent struct {
	kind Interrupt
	arg  uint64
}

// Deliver records an asynchronous event for the context. It may be called
// from any goroutine, including a signal-watching one: it never blocks and
// only performs atomic operations on the pending slot. The event is raised
// at the next call to Poll from the goroutine driving the context.
//
// At most one event is pending. A heap overflow outranks a stack overflow,
// which outranks a signal; a delivery that does not outrank the pending
// event is dropped and Deliver reports false.
func (ec *ExecutionContext) Deliver(kind Interrupt, arg uint64) bool {
	if kind == NoInterrupt {
		return false
	}
	ev := &pendingEvent{kind: kind, arg: arg}
	for {
		cur := ec.pending.Load()
		if cur != nil && cur.kind >= kind {
			return false
		}
		if ec.pending.CompareAndSwap(cur, ev) {
			return true
		}
	}
}

// Pending returns the event waiting to be raised, if any.
func (ec *ExecutionContext) Pending() (Interrupt, uint64) {
	ev := ec.pending.Load()
	if ev == nil {
		return NoInterrupt, 0
	}
	return ev.kind, ev.arg
}

// Poll is the safe-point check the interpreter runs at loop back-edges and
// call boundaries. If an asynchronous event is pending it is cleared and
// raised as an ordinary synchronous exception, in which case Poll does not
// return.
func (ec *ExecutionContext) Poll() {
	if ec.pending.Load() == nil {
		return
	}
	ev := ec.pending.Swap(nil)
	if ev == nil {
		return
	}
	switch ev.kind {
	case HeapInterrupt:
		ec.RaiseOutOfMemory(ev.arg)
	case StackInterrupt:
		ec.RaiseStackOverflow(ev.arg)
	case SignalInterrupt:
		ec.RaiseSignal(int(ev.arg))
	}
}
