package exn

import "fmt"

// SubCode refines a tag. Every sub-code belongs to exactly one parent tag.
type SubCode interface {
	Tag() Tag
	String() string
}

// RuntimeCode refines the Runtime tag.
type RuntimeCode uint8

const (
	FailedPatternMatch RuntimeCode = iota
	Blackhole
	OutOfBounds
	// Exit is raised to terminate the program deliberately. When it reaches
	// the fatal path its payload is used as the process exit status.
	Exit
	InvalidOpcode
	LoadError
	RuntimeError

	runtimeCodeCount
)

var runtimeCodeNames = [runtimeCodeCount]string{
	FailedPatternMatch: "failed-pattern-match",
	Blackhole:          "blackhole",
	OutOfBounds:        "out-of-bounds",
	Exit:               "exit",
	InvalidOpcode:      "invalid-opcode",
	LoadError:          "load-error",
	RuntimeError:       "generic-runtime-error",
}

func (c RuntimeCode) Tag() Tag { return Runtime }

func (c RuntimeCode) String() string {
	if c >= runtimeCodeCount {
		return fmt.Sprintf("runtime-code(%d)", uint8(c))
	}
	return runtimeCodeNames[c]
}

// SystemCode refines the System tag.
type SystemCode uint8

const (
	EOF SystemCode = iota
	BlockedIO
	SystemError

	systemCodeCount
)

var systemCodeNames = [systemCodeCount]string{
	EOF:         "eof",
	BlockedIO:   "blocked-io",
	SystemError: "generic-system-error",
}

func (c SystemCode) Tag() Tag { return System }

func (c SystemCode) String() string {
	if c >= systemCodeCount {
		return fmt.Sprintf("system-code(%d)", uint8(c))
	}
	return systemCodeNames[c]
}

// ArithCode refines the Arithmetic tag. The first six values double as IEEE
// 754 sticky and trap flag bit positions.
type ArithCode uint8

const (
	FpeInvalid ArithCode = iota
	FpeZeroDivide
	FpeOverflow
	FpeUnderflow
	FpeInexact
	FpeDenormal

	// IntUnderflow is used for negative overflows.
	IntZeroDivide
	IntOverflow
	IntUnderflow

	// FpeError is a general floating point error.
	FpeError
	FpeUnemulated
	FpeSqrtNeg
	FpeStackOverflow
	FpeStackUnderflow

	arithCodeCount
)

// IEEEFlagCount is the number of arithmetic codes that correspond to IEEE
// 754 sticky/trap flags.
const IEEEFlagCount = int(FpeDenormal) + 1

var arithCodeNames = [arithCodeCount]string{
	FpeInvalid:        "fp-invalid",
	FpeZeroDivide:     "fp-zero-divide",
	FpeOverflow:       "fp-overflow",
	FpeUnderflow:      "fp-underflow",
	FpeInexact:        "fp-inexact",
	FpeDenormal:       "fp-denormal",
	IntZeroDivide:     "int-zero-divide",
	IntOverflow:       "int-overflow",
	IntUnderflow:      "int-underflow",
	FpeError:          "generic-fp-error",
	FpeUnemulated:     "fp-unemulated",
	FpeSqrtNeg:        "sqrt-of-negative",
	FpeStackOverflow:  "fp-stack-overflow",
	FpeStackUnderflow: "fp-stack-underflow",
}

func (c ArithCode) Tag() Tag { return Arithmetic }

func (c ArithCode) String() string {
	if c >= arithCodeCount {
		return fmt.Sprintf("arith-code(%d)", uint8(c))
	}
	return arithCodeNames[c]
}

// IsIEEEFlag reports whether the code maps onto an IEEE 754 sticky/trap bit.
func (c ArithCode) IsIEEEFlag() bool {
	return int(c) < IEEEFlagCount
}

// SubCodes returns the sub-codes scoped to the given tag, or nil when the
// tag carries none.
func SubCodes(tag Tag) []SubCode {
	var codes []SubCode
	switch tag {
	case Runtime:
		for c := RuntimeCode(0); c < runtimeCodeCount; c++ {
			codes = append(codes, c)
		}
	case System:
		for c := SystemCode(0); c < systemCodeCount; c++ {
			codes = append(codes, c)
		}
	case Arithmetic:
		for c := ArithCode(0); c < arithCodeCount; c++ {
			codes = append(codes, c)
		}
	}
	return codes
}

// ParseSubCode returns the sub-code of the given tag with the given name.
func ParseSubCode(tag Tag, name string) (SubCode, error) {
	for _, c := range SubCodes(tag) {
		if c.String() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no sub-code %q", ErrCodeMismatch, tag, name)
}

func validCode(c SubCode) bool {
	switch c := c.(type) {
	case RuntimeCode:
		return c < runtimeCodeCount
	case SystemCode:
		return c < systemCodeCount
	case ArithCode:
		return c < arithCodeCount
	default:
		return false
	}
}
