// Package prim implements the runtime primitives that report failure through
// exceptions: floating point control, checked integer arithmetic and file
// and channel I/O.
package prim

import (
	"errors"
	"math"
	"strconv"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/deepnoodle-ai/lvm/vm"
)

// Rounding is an IEEE 754 rounding mode.
type Rounding int

const (
	RoundNearest Rounding = iota
	RoundUp
	RoundDown
	RoundZero
)

// FPU holds the floating point control state of one execution context: the
// sticky flags raised so far, the flags that trap, and the rounding mode.
// Flag masks use the exn.ArithCode IEEE flag positions as bit indexes.
type FPU struct {
	sticky uint32
	traps  uint32
	round  Rounding
}

// DefaultTraps traps invalid operations, division by zero and overflow.
var DefaultTraps = Mask(exn.FpeInvalid, exn.FpeZeroDivide, exn.FpeOverflow)

// NewFPU returns an FPU with cleared sticky flags and the default traps.
func NewFPU() *FPU {
	return &FPU{traps: DefaultTraps}
}

// Mask builds a flag mask from IEEE flag codes. Codes that are not IEEE
// flags are ignored.
func Mask(codes ...exn.ArithCode) uint32 {
	var m uint32
	for _, c := range codes {
		if c.IsIEEEFlag() {
			m |= 1 << c
		}
	}
	return m
}

const allFlags = 1<<exn.IEEEFlagCount - 1

// Reset clears the sticky flags and restores the default traps and
// rounding mode.
func (f *FPU) Reset() {
	f.sticky = 0
	f.traps = DefaultTraps
	f.round = RoundNearest
}

// Sticky returns the sticky flags raised so far.
func (f *FPU) Sticky() uint32 { return f.sticky }

// SetSticky replaces the sticky flags and returns the previous ones.
func (f *FPU) SetSticky(mask uint32) uint32 {
	old := f.sticky
	f.sticky = mask & allFlags
	return old
}

// Traps returns the trapping flags.
func (f *FPU) Traps() uint32 { return f.traps }

// SetTraps replaces the trapping flags and returns the previous ones.
func (f *FPU) SetTraps(mask uint32) uint32 {
	old := f.traps
	f.traps = mask & allFlags
	return old
}

// Round returns the rounding mode.
func (f *FPU) Round() Rounding { return f.round }

// SetRound sets the rounding mode and returns the previous one. Only
// round-to-nearest is supported natively; other modes raise an unemulated
// arithmetic exception.
func (f *FPU) SetRound(ec *vm.ExecutionContext, mode Rounding) Rounding {
	if mode != RoundNearest {
		ec.RaiseArithmetic(exn.FpeUnemulated)
	}
	old := f.round
	f.round = mode
	return old
}

// flag records code in the sticky flags and raises it if it traps.
func (f *FPU) flag(ec *vm.ExecutionContext, code exn.ArithCode) {
	bit := uint32(1) << code
	f.sticky |= bit
	if f.traps&bit != 0 {
		ec.RaiseArithmetic(code)
	}
}

// Check classifies the result of a floating point operation on finite
// operands, recording and possibly raising the matching flag.
func (f *FPU) Check(ec *vm.ExecutionContext, x float64) float64 {
	switch {
	case math.IsNaN(x):
		f.flag(ec, exn.FpeInvalid)
	case math.IsInf(x, 0):
		f.flag(ec, exn.FpeOverflow)
	case x != 0 && math.Abs(x) < 0x1p-1022:
		f.flag(ec, exn.FpeDenormal)
		f.flag(ec, exn.FpeUnderflow)
	}
	return x
}

// Div divides a by b.
func (f *FPU) Div(ec *vm.ExecutionContext, a, b float64) float64 {
	if b == 0 {
		if a == 0 || math.IsNaN(a) {
			f.flag(ec, exn.FpeInvalid)
			return math.NaN()
		}
		f.flag(ec, exn.FpeZeroDivide)
		return math.Copysign(math.Inf(1), a) * math.Copysign(1, b)
	}
	if math.IsInf(a, 0) || math.IsNaN(a) || math.IsNaN(b) {
		return a / b
	}
	q := a / b
	if q == 0 && a != 0 && !math.IsInf(b, 0) {
		// Nonzero finite operands whose quotient rounds to zero.
		f.flag(ec, exn.FpeUnderflow)
		return q
	}
	return f.Check(ec, q)
}

// Sqrt returns the square root of x. Negative operands set the invalid flag
// and raise sqrt-of-negative when invalid operations trap.
func (f *FPU) Sqrt(ec *vm.ExecutionContext, x float64) float64 {
	if x < 0 {
		f.sticky |= 1 << exn.FpeInvalid
		if f.traps&(1<<exn.FpeInvalid) != 0 {
			ec.RaiseArithmetic(exn.FpeSqrtNeg)
		}
		return math.NaN()
	}
	return math.Sqrt(x)
}

// FloatOfString parses a floating point literal. Malformed input raises an
// invalid argument; out of range input sets the overflow or underflow flag.
func (f *FPU) FloatOfString(ec *vm.ExecutionContext, s string) float64 {
	x, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return x
	}
	if errors.Is(err, strconv.ErrRange) {
		if x == 0 {
			f.flag(ec, exn.FpeUnderflow)
			return x
		}
		f.flag(ec, exn.FpeOverflow)
		return x
	}
	ec.RaiseInvalidArgument("float_of_string: " + strconv.Quote(s))
	return 0
}
