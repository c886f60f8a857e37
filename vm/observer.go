package vm

import "github.com/deepnoodle-ai/lvm/exn"

// Observer is an interface for observing exception events. Implementations
// can be used for tracing, metrics or debugging without modifying the
// runtime.
//
// All methods are optional - implementations can embed NoOpObserver to
// provide default no-op implementations for methods they don't need.
type Observer interface {
	// OnInstall is called after a frame is pushed.
	OnInstall(event FrameEvent)

	// OnUninstall is called after a frame is popped by normal exit.
	OnUninstall(event FrameEvent)

	// OnRaise is called before an exception raised by one of the Raise
	// constructors or by Reraise is transferred. Depth is the
	// number of frames installed at the raise site; zero means the raise
	// will take the fatal path.
	OnRaise(event RaiseEvent)

	// OnLand is called once a protected region has received an exception,
	// after the frame has been consumed.
	OnLand(event RaiseEvent)
}

// FrameEvent describes a frame install or uninstall.
type FrameEvent struct {
	// Context is the id of the owning execution context.
	Context string

	// Depth is the number of frames installed after the event.
	Depth int

	// RootDepth is the root depth saved in the frame.
	RootDepth int
}

// RaiseEvent describes a raise or a landing.
type RaiseEvent struct {
	Context   string
	Exception *exn.Exception
	Depth     int
}

// NoOpObserver is an Observer that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) OnInstall(FrameEvent)   {}
func (NoOpObserver) OnUninstall(FrameEvent) {}
func (NoOpObserver) OnRaise(RaiseEvent)     {}
func (NoOpObserver) OnLand(RaiseEvent)      {}
