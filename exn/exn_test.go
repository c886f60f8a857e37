package exn

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestIsAsync(t *testing.T) {
	tests := []struct {
		tag      Tag
		expected bool
	}{
		{AsyncHeapOverflow, true},
		{AsyncStackOverflow, true},
		{AsyncSignal, true},
		{Runtime, false},
		{Arithmetic, false},
		{System, false},
		{InvalidArgument, false},
		{Assertion, false},
		{NotFound, false},
		{User, false},
	}
	require.Len(t, tests, len(Tags()))
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			require.Equal(t, tt.expected, IsAsync(tt.tag))
			require.Equal(t, tt.expected, tt.tag.IsAsync())
		})
	}
}

func TestTagNames(t *testing.T) {
	for _, tag := range Tags() {
		parsed, err := ParseTag(tag.String())
		require.NoError(t, err)
		require.Equal(t, tag, parsed)
	}
	_, err := ParseTag("bogus")
	require.ErrorIs(t, err, ErrInvalidTag)
	require.Equal(t, "tag(200)", Tag(200).String())
}

func TestSubCodesScopedToTag(t *testing.T) {
	require.Len(t, SubCodes(Runtime), 7)
	require.Len(t, SubCodes(System), 3)
	require.Len(t, SubCodes(Arithmetic), 14)
	require.Nil(t, SubCodes(User))

	for _, tag := range Tags() {
		for _, code := range SubCodes(tag) {
			require.Equal(t, tag, code.Tag())
			parsed, err := ParseSubCode(tag, code.String())
			require.NoError(t, err)
			require.Equal(t, code, parsed)
		}
	}
	require.True(t, FpeDenormal.IsIEEEFlag())
	require.False(t, IntZeroDivide.IsIEEEFlag())
}

func TestNewValidates(t *testing.T) {
	e, err := New(System, SystemError, 9, "Bad file descriptor")
	require.NoError(t, err)
	require.True(t, e.Matches(System, SystemError))
	require.True(t, e.Matches(System, nil))
	require.False(t, e.Matches(System, EOF))
	require.Equal(t, 9, e.Val(0))
	require.Equal(t, "Bad file descriptor", e.Val(1))
	require.Nil(t, e.Val(2))

	_, err = New(System, InvalidOpcode)
	require.ErrorIs(t, err, ErrCodeMismatch)

	_, err = New(Tag(42), nil)
	require.ErrorIs(t, err, ErrInvalidTag)

	_, err = New(User, nil, 1, 2, 3)
	require.ErrorIs(t, err, ErrPayload)

	_, err = New(Runtime, RuntimeCode(99))
	require.ErrorIs(t, err, ErrCodeMismatch)

	require.Panics(t, func() { Must(Arithmetic, EOF) })
}

func TestExceptionError(t *testing.T) {
	tests := []struct {
		name     string
		exn      *Exception
		expected string
	}{
		{"bare", Must(NotFound, nil), "not-found exception"},
		{"code", Must(System, BlockedIO), "system exception (blocked-io)"},
		{"payload", Must(System, SystemError, 9, "Bad file descriptor"),
			`system exception (generic-system-error): 9, "Bad file descriptor"`},
		{"async", Must(AsyncHeapOverflow, nil, uint64(4096)), "async-heap-overflow exception: 4096"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.exn.Error())
		})
	}
}

func TestExitStatus(t *testing.T) {
	status, ok := Must(Runtime, Exit, 3).ExitStatus()
	require.True(t, ok)
	require.Equal(t, 3, status)

	status, ok = Must(Runtime, Exit).ExitStatus()
	require.True(t, ok)
	require.Equal(t, 0, status)

	_, ok = Must(Runtime, OutOfBounds, 3).ExitStatus()
	require.False(t, ok)
}

func TestUnwrapCause(t *testing.T) {
	cause := errors.New("boom")
	e := Must(System, SystemError, 5, "io").WithCause(cause)
	require.ErrorIs(t, e, cause)

	var target *Exception
	require.True(t, errors.As(error(e), &target))
	require.Same(t, e, target)
}

func TestErrorsIsUsesIdentity(t *testing.T) {
	e := Must(NotFound, nil, "key")
	other := Must(NotFound, nil, "key")
	wrapped := fmt.Errorf("lookup: %w", e)

	require.ErrorIs(t, wrapped, e)
	require.False(t, errors.Is(wrapped, other))

	var target *Exception
	require.True(t, errors.As(wrapped, &target))
	require.True(t, target.Matches(NotFound, nil))
	require.False(t, target.Matches(System, nil))
}

func TestMarshalZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := Must(Runtime, InvalidOpcode, int64(77)).WithMessage(Msg("bad").Int("pc", 12))
	logger.Error().Object("exception", e).Msg("uncaught")

	out := buf.String()
	require.Contains(t, out, `"tag":"runtime"`)
	require.Contains(t, out, `"code":"invalid-opcode"`)
	require.Contains(t, out, `"payload":[77]`)
	require.Contains(t, out, `"pc":12`)
}

func TestMessage(t *testing.T) {
	require.Equal(t, "plain", Msg("plain").String())
	m := Msg("cannot load").Str("module", "List").Int("line", 3).Uint("size", 8).
		Err(errors.New("eof")).Err(nil).Any("ok", true)
	require.Equal(t, `cannot load (module="List", line=3, size=8, error="eof", ok=true)`, m.String())
	require.Len(t, m.Fields(), 5)

	var nilMsg *Message
	require.Equal(t, "", nilMsg.String())
	require.Nil(t, nilMsg.Fields())
}
