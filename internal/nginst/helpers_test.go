package nginst

import (
	"archive/tar"
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type tarEntry struct {
	Name     string
	Body     string
	Mode     int64
	Dir      bool
	Linkname string
}

// writeTar builds an uncompressed tar stream from entries.
func writeTar(t *testing.T, w io.Writer, entries []tarEntry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode}
		switch {
		case e.Dir:
			hdr.Typeflag = tar.TypeDir
			if hdr.Mode == 0 {
				hdr.Mode = 0o755
			}
		case e.Linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Linkname
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
			if hdr.Mode == 0 {
				hdr.Mode = 0o644
			}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.Body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
}

// writeArchive writes entries to path compressed according to its extension.
func writeArchive(t *testing.T, path string, entries []tarEntry) {
	t.Helper()
	var buf bytes.Buffer
	switch filepath.Ext(path) {
	case ".gz", ".tgz":
		zw := pgzip.NewWriter(&buf)
		writeTar(t, zw, entries)
		require.NoError(t, zw.Close())
	case ".xz":
		zw, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		writeTar(t, zw, entries)
		require.NoError(t, zw.Close())
	case ".zst":
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		writeTar(t, zw, entries)
		require.NoError(t, zw.Close())
	default:
		writeTar(t, &buf, entries)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeScript writes an executable shell script.
func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

// noNetwork fails the test on any HTTP request.
type noNetwork struct{ t *testing.T }

func (n noNetwork) RoundTrip(req *http.Request) (*http.Response, error) {
	n.t.Errorf("unexpected network request to %s", req.URL)
	return nil, http.ErrHandlerTimeout
}

func offlineClient(t *testing.T) *http.Client {
	return &http.Client{Transport: noNetwork{t: t}}
}
