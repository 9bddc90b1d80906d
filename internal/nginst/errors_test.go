package nginst

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 130, exitCode(context.Canceled))
	assert.Equal(t, 130, exitCode(&StageError{
		Stage: StateBuild,
		Err:   &ExternalCommandError{Desc: "during the source code build", Cmd: "make", ExitCode: -1, Err: fmt.Errorf("command aborted: %w", context.Canceled)},
	}))
	assert.Equal(t, 1, exitCode(&StageError{Stage: StatePreBuild, Err: &DependencyError{Name: "g++"}}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := &ConfigPatchError{Op: "read", Path: "/x/nginx.conf", Err: os.ErrPermission}
	err := error(&StageError{Stage: StatePostInstall, Err: cause})

	var patchErr *ConfigPatchError
	require.ErrorAs(t, err, &patchErr)
	assert.Equal(t, "read", patchErr.Op)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, "post-install: could not read the nginx configuration file '/x/nginx.conf'", err.Error())
}

func TestDescribe(t *testing.T) {
	cause := errors.New("exit status 2")
	msg, got := describe(&StageError{
		Stage: StateBuild,
		Err:   &ExternalCommandError{Desc: "running configure script", Cmd: "./configure", Args: []string{"--without-http_gzip_module"}, ExitCode: 2, Err: cause},
	})
	assert.Equal(t, "problem running configure script (./configure --without-http_gzip_module: exit status 2)", msg)
	assert.Equal(t, cause, got)

	msg, got = describe(&MissingSourceError{File: "index.html"})
	assert.Equal(t, "could not download 'index.html' because no URL was provided", msg)
	assert.Nil(t, got)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pre-build", StatePreBuild.String())
	assert.Equal(t, "post-install", StatePostInstall.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestReporter(t *testing.T) {
	var out bytes.Buffer
	rep := &reporter{Tag: "nginx", Out: &out}

	rep.Msg("creating workspace...")
	rep.Warn("slow mirror")
	rep.Err("could not download the file 'index.html'", errors.New("connection refused"))

	assert.Equal(t, "Package Installer [nginx]: creating workspace...\n"+
		"Package Installer [nginx]: warning: slow mirror\n"+
		"Package Installer [nginx]: could not download the file 'index.html'\n"+
		"connection refused\n", out.String())
}
