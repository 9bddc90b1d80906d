package nginst

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Executor runs external build commands. Output is the combined
// stdout/stderr sink; nil discards it.
type Executor struct {
	Context context.Context // The context to use for cancellation
	Output  io.Writer
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// invoke runs name with args in dir and blocks until it exits. The returned
// exit code is -1 when the command could not be started or was killed.
func (e *Executor) invoke(name string, args []string, dir string) (int, error) {
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	// nil leaves the child on /dev/null
	if e.Output != nil {
		cmd.Stdout = e.Output
		cmd.Stderr = e.Output
	}
	cmd.Stdin = nil

	// isolate process group for context-based cleanup
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	debugf("Running %s %v in %s\n", name, args, dir)
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("failed to start command: %w", err)
	}

	pgid := cmd.Process.Pid
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	if waitErr == nil {
		return 0, nil
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("command aborted: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), waitErr
	}
	return -1, waitErr
}
