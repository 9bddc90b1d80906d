package nginst

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
)

// ensureWorkspace creates path if absent, otherwise checks that it is writable.
func ensureWorkspace(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return &WorkspaceError{Msg: "could not create the working directory", Path: path, Err: err}
		}
		return nil
	case err != nil:
		return &WorkspaceError{Msg: "could not access the working directory", Path: path, Err: err}
	case !info.IsDir():
		return &WorkspaceError{Msg: "working directory is not a directory", Path: path, Err: errors.New("not a directory")}
	}
	return probeWritable(path)
}

// probeWritable creates and removes a scratch file inside dir.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".nginst-probe-*")
	if err != nil {
		return &WorkspaceError{Msg: "could not write to the working directory", Path: dir, Err: err}
	}
	name := f.Name()
	closeErr := f.Close()
	removeErr := os.Remove(name)
	if err := errors.Join(closeErr, removeErr); err != nil {
		return &WorkspaceError{Msg: "could not write to the working directory", Path: dir, Err: err}
	}
	return nil
}

// cleanWorkspace removes path recursively if it exists. Top-level entries
// named in keep (already fetched dependency files) survive the cleanup.
func cleanWorkspace(path, home string, keep []string, rep *reporter) error {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := checkRemovable(path, home); err != nil {
		return &WorkspaceError{Msg: "could not remove the old workspace", Path: path, Err: err}
	}
	rep.Msg("removing old workspace")
	if len(keep) == 0 {
		if err := os.RemoveAll(path); err != nil {
			return &WorkspaceError{Msg: "could not remove the old workspace", Path: path, Err: err}
		}
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return &WorkspaceError{Msg: "could not remove the old workspace", Path: path, Err: err}
	}
	for _, e := range entries {
		if slices.Contains(keep, e.Name()) && e.Type().IsRegular() {
			debugf("Keeping fetched file %s\n", e.Name())
			continue
		}
		if err := os.RemoveAll(filepath.Join(path, e.Name())); err != nil {
			return &WorkspaceError{Msg: "could not remove the old workspace", Path: path, Err: err}
		}
	}
	return nil
}

// guardPreviousInstall removes an empty leftover install directory and
// refuses to continue when it still holds files.
func guardPreviousInstall(installPath string) error {
	entries, err := os.ReadDir(installPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &PreviousInstallError{Path: installPath, Err: err}
	}
	if len(entries) > 0 {
		return &PreviousInstallError{Path: installPath, Err: errors.New("directory not empty")}
	}
	if err := os.Remove(installPath); err != nil {
		return &PreviousInstallError{Path: installPath, Err: err}
	}
	return nil
}
