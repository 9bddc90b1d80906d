package nginst

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Archive suffixes the extractor understands, longest match first.
var archiveSuffixes = []string{".tar.gz", ".tar.xz", ".tar.zst", ".tgz", ".tar"}

// archiveSuffix returns the known archive suffix of name, or "".
func archiveSuffix(name string) string {
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return suffix
		}
	}
	return ""
}

// sourceDirName strips the archive extension from the basename,
// e.g. nginx-1.4.7.tar.gz -> nginx-1.4.7.
func sourceDirName(archive string) string {
	base := filepath.Base(archive)
	return strings.TrimSuffix(base, archiveSuffix(base))
}

// tarArgs returns the system tar arguments that unpack archive.
func tarArgs(archive string) []string {
	switch archiveSuffix(archive) {
	case ".tar.xz":
		return []string{"Jxvf", archive}
	case ".tar.zst":
		return []string{"--zstd", "-xvf", archive}
	case ".tar":
		return []string{"xvf", archive}
	default:
		return []string{"zxvf", archive}
	}
}

// decompressor picks a reader for the archive's compression by extension.
func decompressor(path string, f io.Reader) (io.Reader, func(), error) {
	noop := func() {}
	switch archiveSuffix(path) {
	case ".tar.gz", ".tgz":
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
		}
		return gz, func() { gz.Close() }, nil
	case ".tar.xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create xz reader for %s: %w", path, err)
		}
		return xzr, noop, nil
	case ".tar.zst":
		zst, err := zstd.NewReader(f)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create zstd reader for %s: %w", path, err)
		}
		return zst, zst.Close, nil
	case ".tar":
		return f, noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported archive format: %s", path)
	}
}

// extractNative unpacks archive into dest without stripping the top-level
// directory, preserving file modes so the configure script stays executable.
func extractNative(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer f.Close()

	r, closeFn, err := decompressor(archive, f)
	if err != nil {
		return err
	}
	defer closeFn()

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading tar header in %s: %w", archive, err)
		}

		// Skip PAX headers (global or per-file)
		if hdr.Typeflag == tar.TypeXHeader || hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		target, err := sanitizeArchivePath(dest, hdr.Name)
		if err != nil {
			return err
		}
		if err := checkSymlinkParents(dest, target); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create parent dir for %s: %w", target, err)
			}
			// Replace rather than follow a symlink left by an earlier entry.
			if fi, err := os.Lstat(target); err == nil && fi.Mode()&os.ModeSymlink != 0 {
				_ = os.Remove(target)
			}
			if err := writeEntry(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkLinkTarget(dest, target, hdr.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create parent dir for %s: %w", target, err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s -> %s: %w", target, hdr.Linkname, err)
			}
		case tar.TypeLink:
			src, err := sanitizeArchivePath(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := checkSymlinkParents(dest, src); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Link(src, target); err != nil {
				return fmt.Errorf("failed to create hard link %s -> %s: %w", target, src, err)
			}
		default:
			debugf("Skipping unsupported tar entry type %c: %s\n", hdr.Typeflag, hdr.Name)
		}
	}
	return nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", target, err)
	}
	// OpenFile applies the umask; restore the archived mode.
	return os.Chmod(target, mode)
}

// sanitizeArchivePath rejects entries that would land outside dest.
func sanitizeArchivePath(dest, name string) (string, error) {
	cleanDest := filepath.Clean(dest)
	target := filepath.Join(cleanDest, filepath.FromSlash(name))
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}

// checkLinkTarget rejects symlinks that are absolute or resolve outside dest.
func checkLinkTarget(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("illegal symlink target in archive: %s -> %s", target, linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	rel, err := filepath.Rel(filepath.Clean(dest), resolved)
	if err != nil {
		return fmt.Errorf("illegal symlink target in archive: %s -> %s", target, linkname)
	}
	if _, err := sanitizeArchivePath(dest, filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("illegal symlink target in archive: %s -> %s", target, linkname)
	}
	return nil
}

// checkSymlinkParents refuses a target whose parent directories below dest
// include a symlink, so no entry is written through a link.
func checkSymlinkParents(dest, target string) error {
	cleanDest := filepath.Clean(dest)
	rel, err := filepath.Rel(cleanDest, filepath.Dir(target))
	if err != nil || rel == "." {
		return nil
	}
	cur := cleanDest
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", cur, err)
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("illegal file path in archive: %s is below symlink %s", target, cur)
		}
	}
	return nil
}
