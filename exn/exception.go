package exn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// MaxPayload is the number of payload values an exception may carry.
const MaxPayload = 2

var (
	// ErrInvalidTag is returned for tags outside the defined range.
	ErrInvalidTag = errors.New("invalid exception tag")
	// ErrCodeMismatch is returned when a sub-code does not belong to the tag.
	ErrCodeMismatch = errors.New("sub-code does not belong to tag")
	// ErrPayload is returned when too many payload values are supplied.
	ErrPayload = errors.New("exception payload too large")
)

// Exception is the value delivered to a protected region when control is
// transferred to it. It is immutable once raised; re-raising passes the same
// value outward.
type Exception struct {
	Tag     Tag
	Code    SubCode
	Payload []any
	Fields  []Field
	Cause   error
}

// New validates and builds an exception. The code may be nil when the tag is
// used without refinement.
func New(tag Tag, code SubCode, payload ...any) (*Exception, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTag, uint8(tag))
	}
	if code != nil {
		if code.Tag() != tag || !validCode(code) {
			return nil, fmt.Errorf("%w: %s does not refine %s", ErrCodeMismatch, code, tag)
		}
	}
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d values", ErrPayload, len(payload))
	}
	return &Exception{Tag: tag, Code: code, Payload: payload}, nil
}

// Must is like New but panics on an invalid combination. It is meant for
// constructors whose arguments are fixed at compile time.
func Must(tag Tag, code SubCode, payload ...any) *Exception {
	e, err := New(tag, code, payload...)
	if err != nil {
		panic(err)
	}
	return e
}

// WithMessage attaches the structured fields of m to the exception.
func (e *Exception) WithMessage(m *Message) *Exception {
	e.Fields = m.Fields()
	return e
}

// WithCause records the Go error that triggered the exception.
func (e *Exception) WithCause(err error) *Exception {
	e.Cause = err
	return e
}

// Matches reports whether the exception carries the given tag and, when
// code is non-nil, the given sub-code.
func (e *Exception) Matches(tag Tag, code SubCode) bool {
	if e.Tag != tag {
		return false
	}
	return code == nil || e.Code == code
}

// IsAsync reports whether the exception belongs to the asynchronous family.
func (e *Exception) IsAsync() bool {
	return IsAsync(e.Tag)
}

// Val returns the i-th payload value, or nil if absent.
func (e *Exception) Val(i int) any {
	if i < 0 || i >= len(e.Payload) {
		return nil
	}
	return e.Payload[i]
}

// ExitStatus returns the requested status of a deliberate exit exception.
func (e *Exception) ExitStatus() (int, bool) {
	if !e.Matches(Runtime, Exit) {
		return 0, false
	}
	switch v := e.Val(0).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}

// Error implements the error interface.
func (e *Exception) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Tag.String())
	sb.WriteString(" exception")
	if e.Code != nil {
		sb.WriteString(" (")
		sb.WriteString(e.Code.String())
		sb.WriteString(")")
	}
	if len(e.Payload) > 0 {
		sb.WriteString(": ")
		sb.WriteString(e.PayloadString())
	}
	return sb.String()
}

// PayloadString renders the payload values separated by commas.
func (e *Exception) PayloadString() string {
	parts := make([]string, len(e.Payload))
	for i, v := range e.Payload {
		switch v := v.(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, ", ")
}

// Unwrap returns the underlying Go error, if any.
func (e *Exception) Unwrap() error {
	return e.Cause
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *Exception) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("tag", e.Tag.String())
	if e.Code != nil {
		ev.Str("code", e.Code.String())
	}
	if len(e.Payload) > 0 {
		ev.Interface("payload", e.Payload)
	}
	for _, f := range e.Fields {
		ev.Interface(f.Key, f.Value)
	}
	if e.Cause != nil {
		ev.AnErr("cause", e.Cause)
	}
}
