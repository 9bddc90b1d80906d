package nginst

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130 // Common exit code for SIGINT
)

// WorkspaceError reports a failure to create, probe, clean or populate a directory.
type WorkspaceError struct {
	Msg  string
	Path string
	Err  error
}

func (e *WorkspaceError) Error() string {
	return fmt.Sprintf("%s '%s'", e.Msg, e.Path)
}

func (e *WorkspaceError) Unwrap() error { return e.Err }

// PreviousInstallError is returned when the install path already holds files.
type PreviousInstallError struct {
	Path string
	Err  error
}

func (e *PreviousInstallError) Error() string {
	return fmt.Sprintf("exiting installation because '%s' is not empty. This may mean that a previous installation has been successful.", e.Path)
}

func (e *PreviousInstallError) Unwrap() error { return e.Err }

// DependencyError names a required tool or file that is missing or unusable.
type DependencyError struct {
	Name string
	Kind DependencyKind
	Path string
}

func (e *DependencyError) Error() string {
	if e.Kind == KindExecutable {
		return fmt.Sprintf("dependency not a valid executable or may not exist '%s'", e.Name)
	}
	return fmt.Sprintf("dependency not readable or may not exist '%s'", e.Name)
}

// MissingSourceError is returned when a file is absent and has no URL to fetch it from.
type MissingSourceError struct {
	File string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("could not download '%s' because no URL was provided", e.File)
}

// DownloadError wraps any transport or verification failure while fetching.
type DownloadError struct {
	File string
	URL  string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("could not download the file '%s'", e.File)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExternalCommandError reports a command that could not start or exited non-zero.
type ExternalCommandError struct {
	Desc     string
	Cmd      string
	Args     []string
	ExitCode int
	Err      error
}

func (e *ExternalCommandError) Error() string {
	return fmt.Sprintf("problem %s (%s %s: exit status %d)", e.Desc, e.Cmd, strings.Join(e.Args, " "), e.ExitCode)
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// ConfigPatchError reports a read, write or rename failure on the server config.
type ConfigPatchError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigPatchError) Error() string {
	return fmt.Sprintf("could not %s the nginx configuration file '%s'", e.Op, e.Path)
}

func (e *ConfigPatchError) Unwrap() error { return e.Err }

// ConfigError reports an invalid installer setting.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Key)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StageError records which pipeline stage failed.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// exitCode maps a pipeline result to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return exitFailure
	}
}

// describe splits err into the user-facing message and the underlying cause
// that is printed on its own line.
func describe(err error) (string, error) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		err = stageErr.Err
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return err.Error(), u.Unwrap()
	}
	return err.Error(), nil
}
