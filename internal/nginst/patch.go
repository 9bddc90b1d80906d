package nginst

import (
	"bytes"
	"errors"
	"os"
	"regexp"
)

// listenLine matches a whole line (terminator excluded) that is exactly a
// "listen 80;" directive with arbitrary surrounding whitespace.
var listenLine = regexp.MustCompile(`^\s*listen\s+80;$`)

// patchListenPort returns content with the port of every "listen 80;" line
// replaced by port. Other lines, and all line terminators, are kept as is.
//
// The replacement substitutes every "80" in the matched line. That is only
// safe because the whole line has already been matched.
func patchListenPort(content []byte, port string) []byte {
	out := make([]byte, 0, len(content)+len(port))
	for len(content) > 0 {
		line := content
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line = content[:i+1]
		}
		content = content[len(line):]

		body := bytes.TrimSuffix(line, []byte("\n"))
		if listenLine.Match(body) {
			out = append(out, bytes.ReplaceAll(body, []byte("80"), []byte(port))...)
			out = append(out, line[len(body):]...)
			continue
		}
		out = append(out, line...)
	}
	return out
}

// PatchListenPort rewrites the listen port in the config file at path. The
// new content goes to a sibling .new file that then replaces the original.
func PatchListenPort(path, port string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ConfigPatchError{Op: "open", Path: path, Err: err}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return &ConfigPatchError{Op: "read", Path: path, Err: err}
	}

	tmpPath := path + ".new"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &ConfigPatchError{Op: "write", Path: tmpPath, Err: err}
	}
	_, writeErr := f.Write(patchListenPort(content, port))
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpPath)
		return &ConfigPatchError{Op: "write", Path: tmpPath, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &ConfigPatchError{Op: "overwrite", Path: path, Err: err}
	}
	return nil
}
