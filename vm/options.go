package vm

import (
	"io"

	"github.com/deepnoodle-ai/lvm/roots"
	"github.com/rs/zerolog"
)

// Option is a configuration function for a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for uncaught exceptions, context teardown
// and other runtime events. The default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithExit replaces the function used to terminate the process on an
// uncaught exception. The default is os.Exit. If the supplied function
// returns, the raising goroutine panics with a Terminated value so that
// control still never returns to the raiser.
func WithExit(exit func(status int)) Option {
	return func(rt *Runtime) {
		rt.exit = exit
	}
}

// WithFailureStatus sets the exit status used for uncaught exceptions other
// than a deliberate exit. Non-positive values are ignored.
//
// A deliberate runtime/exit may request any status, including this one. Hosts
// that must tell the two apart from the status alone should pick a value the
// programs they run never pass to exit; the failure path is otherwise
// recognizable by its diagnostic, which a deliberate exit never prints.
func WithFailureStatus(status int) Option {
	return func(rt *Runtime) {
		if status > 0 {
			rt.failureStatus = status
		}
	}
}

// WithDiagnostics sets where the uncaught exception report is written. The
// default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.diagnostics = w
	}
}

// WithColor enables or disables colored diagnostics.
func WithColor(enabled bool) Option {
	return func(rt *Runtime) {
		rt.color = enabled
	}
}

// WithRootTracker sets the constructor used to create the root-tracking
// cursor of each new execution context.
func WithRootTracker(newTracker func() roots.Tracker) Option {
	return func(rt *Runtime) {
		rt.newTracker = newTracker
	}
}

// WithMaxFrames limits how many protected regions may be nested on one
// execution context. Installing beyond the limit raises a stack overflow.
func WithMaxFrames(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxFrames = n
		}
	}
}

// WithObserver sets an observer for exception events. Observer methods are
// called synchronously and never from inside the transfer itself.
func WithObserver(observer Observer) Option {
	return func(rt *Runtime) {
		rt.observer = observer
	}
}
