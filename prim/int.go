package prim

import (
	"math"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/deepnoodle-ai/lvm/vm"
)

// IntAdd adds with overflow detection. Positive overflow raises
// int-overflow and negative overflow raises int-underflow.
func IntAdd(ec *vm.ExecutionContext, a, b int64) int64 {
	sum := a + b
	if a > 0 && b > 0 && sum < 0 {
		ec.RaiseArithmetic(exn.IntOverflow)
	}
	if a < 0 && b < 0 && sum >= 0 {
		ec.RaiseArithmetic(exn.IntUnderflow)
	}
	return sum
}

// IntMul multiplies with overflow detection.
func IntMul(ec *vm.ExecutionContext, a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		if (a < 0) != (b < 0) {
			ec.RaiseArithmetic(exn.IntUnderflow)
		}
		ec.RaiseArithmetic(exn.IntOverflow)
	}
	return p
}

// IntDiv divides truncating toward zero.
func IntDiv(ec *vm.ExecutionContext, a, b int64) int64 {
	if b == 0 {
		ec.RaiseArithmetic(exn.IntZeroDivide)
	}
	if a == math.MinInt64 && b == -1 {
		ec.RaiseArithmetic(exn.IntOverflow)
	}
	return a / b
}

// IntMod returns the remainder of truncated division.
func IntMod(ec *vm.ExecutionContext, a, b int64) int64 {
	if b == 0 {
		ec.RaiseArithmetic(exn.IntZeroDivide)
	}
	if b == -1 {
		return 0
	}
	return a % b
}
