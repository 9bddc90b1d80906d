package nginst

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNative(t *testing.T) {
	entries := []tarEntry{
		{Name: "nginx-1.4.7/", Dir: true},
		{Name: "nginx-1.4.7/configure", Body: "#!/bin/sh\n", Mode: 0o755},
		{Name: "nginx-1.4.7/conf/nginx.conf", Body: "listen 80;\n"},
		{Name: "nginx-1.4.7/LICENSE.link", Linkname: "configure"},
	}

	for _, ext := range []string{".tar.gz", ".tgz", ".tar.xz", ".tar.zst", ".tar"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "nginx-1.4.7"+ext)
			writeArchive(t, archive, entries)

			require.NoError(t, extractNative(archive, dir))

			src := filepath.Join(dir, sourceDirName(archive))
			info, err := os.Stat(filepath.Join(src, "configure"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

			conf, err := os.ReadFile(filepath.Join(src, "conf", "nginx.conf"))
			require.NoError(t, err)
			assert.Equal(t, "listen 80;\n", string(conf))

			link, err := os.Readlink(filepath.Join(src, "LICENSE.link"))
			require.NoError(t, err)
			assert.Equal(t, "configure", link)
		})
	}
}

func TestExtractNativeRejectsTraversal(t *testing.T) {
	tests := []struct {
		name    string
		entries func(outside string) []tarEntry
		wantErr string
	}{
		{
			name: "dot-dot entry",
			entries: func(string) []tarEntry {
				return []tarEntry{{Name: "../outside/escaped", Body: "x"}}
			},
			wantErr: "illegal file path",
		},
		{
			name: "absolute symlink then write through it",
			entries: func(outside string) []tarEntry {
				return []tarEntry{
					{Name: "link", Linkname: outside},
					{Name: "link/escaped", Body: "x"},
				}
			},
			wantErr: "illegal symlink target",
		},
		{
			name: "relative symlink leaving the workspace",
			entries: func(string) []tarEntry {
				return []tarEntry{
					{Name: "src/link", Linkname: "../../outside"},
					{Name: "src/link/escaped", Body: "x"},
				}
			},
			wantErr: "illegal symlink target",
		},
		{
			name: "file below an in-tree symlink",
			entries: func(string) []tarEntry {
				return []tarEntry{
					{Name: "real/", Dir: true},
					{Name: "link", Linkname: "real"},
					{Name: "link/escaped", Body: "x"},
				}
			},
			wantErr: "below symlink",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ws := filepath.Join(dir, "ws")
			outside := filepath.Join(dir, "outside")
			require.NoError(t, os.Mkdir(ws, 0o755))
			require.NoError(t, os.Mkdir(outside, 0o755))
			archive := filepath.Join(dir, "evil.tar.gz")
			writeArchive(t, archive, tt.entries(outside))

			err := extractNative(archive, ws)

			assert.ErrorContains(t, err, tt.wantErr)
			_, statErr := os.Stat(filepath.Join(outside, "escaped"))
			assert.True(t, os.IsNotExist(statErr), "nothing may be written outside the workspace")
		})
	}
}

func TestExtractNativeReplacesSymlinkWithFile(t *testing.T) {
	ws := t.TempDir()
	archive := filepath.Join(t.TempDir(), "src.tar")
	writeArchive(t, archive, []tarEntry{
		{Name: "target", Body: "keep"},
		{Name: "link", Linkname: "target"},
		{Name: "link", Body: "new"},
	})

	require.NoError(t, extractNative(archive, ws))

	got, err := os.ReadFile(filepath.Join(ws, "target"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
	got, err = os.ReadFile(filepath.Join(ws, "link"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestTarArgs(t *testing.T) {
	assert.Equal(t, []string{"zxvf", "/ws/nginx-1.4.7.tar.gz"}, tarArgs("/ws/nginx-1.4.7.tar.gz"))
	assert.Equal(t, []string{"zxvf", "/ws/nginx-1.4.7.tgz"}, tarArgs("/ws/nginx-1.4.7.tgz"))
	assert.Equal(t, []string{"Jxvf", "/ws/nginx-1.4.7.tar.xz"}, tarArgs("/ws/nginx-1.4.7.tar.xz"))
	assert.Equal(t, []string{"--zstd", "-xvf", "/ws/nginx-1.4.7.tar.zst"}, tarArgs("/ws/nginx-1.4.7.tar.zst"))
	assert.Equal(t, []string{"xvf", "/ws/nginx-1.4.7.tar"}, tarArgs("/ws/nginx-1.4.7.tar"))
}

func TestExtractNativeUnsupported(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "nginx.zip")
	require.NoError(t, os.WriteFile(archive, []byte("PK"), 0o644))

	err := extractNative(archive, t.TempDir())
	assert.ErrorContains(t, err, "unsupported archive format")
}

func TestSanitizeArchivePath(t *testing.T) {
	got, err := sanitizeArchivePath("/ws", "nginx-1.4.7/configure")
	require.NoError(t, err)
	assert.Equal(t, "/ws/nginx-1.4.7/configure", got)

	_, err = sanitizeArchivePath("/ws", "../../etc/passwd")
	assert.Error(t, err)

	_, err = sanitizeArchivePath("/ws", "/../wsx/file")
	assert.Error(t, err)
}
