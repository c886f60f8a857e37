package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepnoodle-ai/lvm/exn"
	"github.com/deepnoodle-ai/lvm/signals"
	"github.com/deepnoodle-ai/lvm/vm"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	viper.Set("no-color", true)
	t.Cleanup(viper.Reset)
}

func testRuntime(t *testing.T) *vm.Runtime {
	t.Helper()
	var diag bytes.Buffer
	rt := vm.New(vm.WithExit(func(int) {}), vm.WithDiagnostics(&diag), vm.WithColor(false))
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestInitConfigReadsFile(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "lvmexn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("failure-status: 9\nlog-level: debug\n"), 0o600))

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })
	initConfig()

	require.Equal(t, path, viper.ConfigFileUsed())
	require.Equal(t, 9, viper.GetInt("failure-status"))
	require.NoError(t, processGlobalFlags())
}

func TestBuildException(t *testing.T) {
	tests := []struct {
		args    []string
		tag     exn.Tag
		code    exn.SubCode
		payload []any
	}{
		{[]string{"system", "generic-system-error", "9", "Bad file descriptor"},
			exn.System, exn.SystemError, []any{int64(9), "Bad file descriptor"}},
		{[]string{"runtime", "exit", "3"}, exn.Runtime, exn.Exit, []any{int64(3)}},
		{[]string{"user", "boom"}, exn.User, nil, []any{"boom"}},
		{[]string{"async-signal", "2"}, exn.AsyncSignal, nil, []any{int64(2)}},
		{[]string{"arithmetic", "int-zero-divide"}, exn.Arithmetic, exn.IntZeroDivide, []any{}},
	}
	for _, tt := range tests {
		e, err := buildException(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.tag, e.Tag)
		assert.Equal(t, tt.code, e.Code)
		assert.Equal(t, tt.payload, e.Payload)
	}
}

func TestBuildExceptionErrors(t *testing.T) {
	_, err := buildException([]string{"bogus"})
	assert.ErrorIs(t, err, exn.ErrInvalidTag)

	_, err = buildException([]string{"user", "a", "b", "c"})
	assert.ErrorIs(t, err, exn.ErrPayload)
}

func TestExitStatusFromPayload(t *testing.T) {
	e, err := buildException([]string{"runtime", "exit", "5"})
	require.NoError(t, err)
	status, ok := e.ExitStatus()
	assert.True(t, ok)
	assert.Equal(t, 5, status)
}

func TestDescribeTags(t *testing.T) {
	infos := describeTags()
	require.Len(t, infos, len(exn.Tags()))
	assert.Equal(t, "async-heap-overflow", infos[0].Name)
	assert.True(t, infos[0].Async)
	assert.False(t, infos[len(infos)-1].Async)

	text := formatTags(infos)
	assert.Contains(t, text, " 2 async-signal (async)")
	assert.Contains(t, text, "     generic-system-error")
}

func TestTagsJSON(t *testing.T) {
	resetViper(t)
	out, err := getOutput(describeTags(), "", "json")
	require.NoError(t, err)
	var decoded []tagInfo
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, describeTags(), decoded)
}

func TestGetOutputUnknownFormat(t *testing.T) {
	_, err := getOutput(nil, "", "xml")
	assert.EqualError(t, err, "unknown output format: xml")
}

func TestRunRaiseCatch(t *testing.T) {
	resetViper(t)
	rt := testRuntime(t)
	e, err := buildException([]string{"arithmetic", "int-zero-divide"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runRaise(rt.Default(), e, true, &buf))
	assert.Equal(t, "caught: arithmetic exception (int-zero-divide)\n", buf.String())
	assert.Equal(t, 0, rt.Default().Depth())
}

func TestRunRaiseUncaught(t *testing.T) {
	resetViper(t)
	rt := testRuntime(t)
	e, err := buildException([]string{"runtime", "exit", "4"})
	require.NoError(t, err)

	defer func() {
		term, ok := recover().(vm.Terminated)
		require.True(t, ok)
		assert.Equal(t, 4, term.Status)
	}()
	runRaise(rt.Default(), e, false, &bytes.Buffer{})
	t.Fatal("raise returned")
}

func TestParseSignals(t *testing.T) {
	sigs, err := parseSignals("int, SIGTERM,")
	require.NoError(t, err)
	assert.Len(t, sigs, 2)

	_, err = parseSignals("SIGNOPE")
	assert.ErrorIs(t, err, signals.ErrUnsupportedSignal)
}

func TestRunWatchTimeout(t *testing.T) {
	resetViper(t)
	rt := testRuntime(t)
	bridge := signals.New()
	defer bridge.Close()

	sigs, err := parseSignals("SIGINT")
	require.NoError(t, err)

	var buf bytes.Buffer
	ctx := vm.WithExecutionContext(context.Background(), rt.Default())
	err = runWatch(ctx, rt, bridge, sigs, watchConfig{
		interval: 5 * time.Millisecond,
		timeout:  20 * time.Millisecond,
	}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "caught async-signal: ")
	assert.Equal(t, 0, rt.Default().Depth())
}

func TestRunWatchCancelled(t *testing.T) {
	resetViper(t)
	rt := testRuntime(t)
	bridge := signals.New()
	defer bridge.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := runWatch(ctx, rt, bridge, nil, watchConfig{interval: 5 * time.Millisecond}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
