package vm

import (
	"github.com/deepnoodle-ai/lvm/exn"
)

// The Raise* constructors build a classified exception and transfer it to
// the nearest frame of the context. None of them return.

// RaiseInvalidArgument raises an invalid-argument exception carrying msg.
func (ec *ExecutionContext) RaiseInvalidArgument(msg string) {
	ec.raise(exn.Must(exn.InvalidArgument, nil, msg))
}

// RaiseUser raises a user exception carrying the rendered message.
func (ec *ExecutionContext) RaiseUser(m *exn.Message) {
	ec.raise(exn.Must(exn.User, nil, m.String()).WithMessage(m))
}

// RaiseInternal raises an assertion exception. It reports an invariant
// violation detected by the runtime, never a condition caused by the user
// program.
func (ec *ExecutionContext) RaiseInternal(m *exn.Message) {
	ec.raise(exn.Must(exn.Assertion, nil, m.String()).WithMessage(m))
}

// RaiseOutOfMemory raises a heap overflow for an allocation of size bytes.
func (ec *ExecutionContext) RaiseOutOfMemory(size uint64) {
	ec.raise(exn.Must(exn.AsyncHeapOverflow, nil, size))
}

// RaiseStackOverflow raises a stack overflow; size is the depth reached.
func (ec *ExecutionContext) RaiseStackOverflow(size uint64) {
	ec.raise(exn.Must(exn.AsyncStackOverflow, nil, size))
}

// RaiseSignal raises an async-signal exception for signal number sig.
func (ec *ExecutionContext) RaiseSignal(sig int) {
	ec.raise(exn.Must(exn.AsyncSignal, nil, sig))
}

// RaiseSysError raises a system error with the OS error code and message.
func (ec *ExecutionContext) RaiseSysError(code int, msg string) {
	ec.raise(exn.Must(exn.System, exn.SystemError, code, msg))
}

// RaiseSysBlockedIO raises when a non-blocking operation would block.
func (ec *ExecutionContext) RaiseSysBlockedIO() {
	ec.raise(exn.Must(exn.System, exn.BlockedIO))
}

// RaiseEOF raises when input is exhausted.
func (ec *ExecutionContext) RaiseEOF() {
	ec.raise(exn.Must(exn.System, exn.EOF))
}

// RaiseInvalidOpcode raises for an instruction the interpreter cannot decode.
func (ec *ExecutionContext) RaiseInvalidOpcode(code int64) {
	ec.raise(exn.Must(exn.Runtime, exn.InvalidOpcode, code))
}

// RaiseModuleError raises a runtime error attributed to the named module.
func (ec *ExecutionContext) RaiseModuleError(name string, m *exn.Message) {
	msg := "module " + name + ": " + m.String()
	fields := append([]exn.Field{{Key: "module", Value: name}}, m.Fields()...)
	e := exn.Must(exn.Runtime, exn.RuntimeError, msg)
	e.Fields = fields
	ec.raise(e)
}

// RaiseArithmetic raises an arithmetic exception with the given code.
func (ec *ExecutionContext) RaiseArithmetic(code exn.ArithCode) {
	ec.raise(exn.Must(exn.Arithmetic, code))
}

// RaiseRuntimeWithValue raises a runtime exception carrying the offending
// value.
func (ec *ExecutionContext) RaiseRuntimeWithValue(code exn.RuntimeCode, val any) {
	ec.raise(exn.Must(exn.Runtime, code, val))
}

// RaiseExit raises the deliberate termination exception. Uncaught, it ends
// the process with the given status.
func (ec *ExecutionContext) RaiseExit(status int) {
	ec.raise(exn.Must(exn.Runtime, exn.Exit, status))
}

// RaiseNotFound raises a not-found exception describing what was missing.
func (ec *ExecutionContext) RaiseNotFound(what string) {
	ec.raise(exn.Must(exn.NotFound, nil, what))
}

// RaiseTag raises a bare exception with the given tag. An invalid tag is
// reported as an assertion.
func (ec *ExecutionContext) RaiseTag(tag exn.Tag) {
	e, err := exn.New(tag, nil)
	if err != nil {
		ec.RaiseInternal(exn.Msg("invalid raise").Err(err))
	}
	ec.raise(e)
}

// RaiseTagStr raises an exception with the given tag carrying msg.
func (ec *ExecutionContext) RaiseTagStr(tag exn.Tag, msg string) {
	e, err := exn.New(tag, nil, msg)
	if err != nil {
		ec.RaiseInternal(exn.Msg("invalid raise").Err(err))
	}
	ec.raise(e)
}
