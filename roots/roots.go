// Package roots provides the root-tracking cursor that the collector uses to
// find live references held by native code. Exception transfer rewinds the
// cursor so that references pushed by an abandoned region are never seen.
package roots

// Tracker is the collector's live-root cursor. Both operations are O(1).
type Tracker interface {
	// Depth returns the number of roots currently registered.
	Depth() int
	// SetDepth truncates the registered roots to n. n must not exceed Depth.
	SetDepth(n int)
}

// Stack is a Tracker backed by a slice of references.
type Stack struct {
	roots []any
}

// NewStack returns an empty root stack with room for capacity entries.
func NewStack(capacity int) *Stack {
	return &Stack{roots: make([]any, 0, capacity)}
}

// Push registers a root and returns the depth before the push, suitable for
// passing to SetDepth to release it.
func (s *Stack) Push(v any) int {
	depth := len(s.roots)
	s.roots = append(s.roots, v)
	return depth
}

// At returns the root registered at index i.
func (s *Stack) At(i int) any {
	return s.roots[i]
}

// Depth implements Tracker.
func (s *Stack) Depth() int {
	return len(s.roots)
}

// SetDepth implements Tracker. Released slots are cleared so that the
// abandoned references become unreachable. It never allocates.
func (s *Stack) SetDepth(n int) {
	if n < 0 || n > len(s.roots) {
		panic("roots: depth out of range")
	}
	clear(s.roots[n:])
	s.roots = s.roots[:n]
}

// Walk calls fn for every registered root, innermost last.
func (s *Stack) Walk(fn func(v any)) {
	for _, v := range s.roots {
		fn(v)
	}
}
