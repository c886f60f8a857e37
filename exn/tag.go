// Package exn defines the exception taxonomy of the Lazy VM runtime: the
// coarse exception tags, the sub-codes scoped to each tag, and the exception
// value delivered to protected regions.
package exn

import "fmt"

// Tag is the coarse classification of an exception.
type Tag uint8

const (
	// AsyncHeapOverflow is raised when the heap cannot satisfy an allocation.
	AsyncHeapOverflow Tag = iota
	// AsyncStackOverflow is raised when the evaluation stack is exhausted.
	AsyncStackOverflow
	// AsyncSignal is raised when an OS signal is delivered to a context.
	AsyncSignal
	// Runtime covers faults detected by the interpreter itself.
	Runtime
	// Arithmetic covers integer and floating point traps.
	Arithmetic
	// System covers failures reported by the operating system.
	System
	// InvalidArgument is raised by primitives given a bad argument.
	InvalidArgument
	// Assertion is raised when the runtime detects a broken invariant.
	Assertion
	// NotFound is raised when a lookup fails.
	NotFound
	// User is raised by program code.
	User

	tagCount
)

var tagNames = [tagCount]string{
	AsyncHeapOverflow:  "async-heap-overflow",
	AsyncStackOverflow: "async-stack-overflow",
	AsyncSignal:        "async-signal",
	Runtime:            "runtime",
	Arithmetic:         "arithmetic",
	System:             "system",
	InvalidArgument:    "invalid-argument",
	Assertion:          "assertion",
	NotFound:           "not-found",
	User:               "user",
}

// String returns the name of the tag.
func (t Tag) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
	return tagNames[t]
}

// Valid reports whether t is one of the defined tags.
func (t Tag) Valid() bool {
	return t < tagCount
}

// IsAsync reports whether the tag belongs to the asynchronous family.
func (t Tag) IsAsync() bool {
	return IsAsync(t)
}

// IsAsync reports whether exceptions with the given tag may be raised at an
// arbitrary program point rather than only at an explicit raise site.
func IsAsync(tag Tag) bool {
	switch tag {
	case AsyncHeapOverflow, AsyncStackOverflow, AsyncSignal:
		return true
	default:
		return false
	}
}

// Tags returns all defined tags in declaration order.
func Tags() []Tag {
	tags := make([]Tag, 0, tagCount)
	for t := Tag(0); t < tagCount; t++ {
		tags = append(tags, t)
	}
	return tags
}

// ParseTag returns the tag with the given name.
func ParseTag(name string) (Tag, error) {
	for t, n := range tagNames {
		if n == name {
			return Tag(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTag, name)
}
