package nginst

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeSuccess(t *testing.T) {
	var out bytes.Buffer
	e := &Executor{Context: context.Background(), Output: &out}

	code, err := e.invoke("/bin/sh", []string{"-c", "echo out; echo err >&2; pwd"}, "/")

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "out\nerr\n/\n", out.String())
}

func TestInvokeWithoutOutputDoesNotWaitForChildren(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := NewExecutor(ctx)

	start := time.Now()
	// The background sleep would keep an output pipe open until it exits.
	code, err := e.invoke("/bin/sh", []string{"-c", "echo noise; sleep 5 &"}, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestInvokeExitCode(t *testing.T) {
	code, err := NewExecutor(context.Background()).invoke("/bin/sh", []string{"-c", "exit 7"}, t.TempDir())

	require.Error(t, err)
	assert.Equal(t, 7, code)
}

func TestInvokeNotFound(t *testing.T) {
	code, err := NewExecutor(context.Background()).invoke("/nonexistent/configure", nil, t.TempDir())

	assert.ErrorContains(t, err, "failed to start command")
	assert.Equal(t, -1, code)
}

func TestInvokeCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := NewExecutor(ctx).invoke("/bin/sh", []string{"-c", "exit 0"}, t.TempDir())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, code)
}

func TestInvokeCanceledWhileRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	code, err := NewExecutor(ctx).invoke("/bin/sh", []string{"-c", "sleep 30 & wait"}, t.TempDir())

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "command aborted")
	assert.Equal(t, -1, code)
	assert.Less(t, time.Since(start), 10*time.Second, "process group must be killed")
}
