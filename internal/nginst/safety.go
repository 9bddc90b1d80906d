package nginst

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Directories that must never be removed wholesale, even when they happen to
// sit under a misconfigured home directory.
var forbiddenSystemDirs = map[string]struct{}{
	"/":          {},
	"/bin":       {},
	"/boot":      {},
	"/dev":       {},
	"/etc":       {},
	"/home":      {},
	"/lib":       {},
	"/lib64":     {},
	"/mnt":       {},
	"/opt":       {},
	"/proc":      {},
	"/root":      {},
	"/run":       {},
	"/sbin":      {},
	"/sys":       {},
	"/tmp":       {},
	"/usr":       {},
	"/usr/local": {},
	"/var":       {},
}

// checkRemovable refuses to delete anything that is not strictly inside home
// or that names a protected system directory.
func checkRemovable(path, home string) error {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return fmt.Errorf("refusing to remove relative path %q", path)
	}
	if _, forbidden := forbiddenSystemDirs[strings.TrimSuffix(clean, "/")]; forbidden || clean == "/" {
		return fmt.Errorf("refusing to remove protected directory %q", clean)
	}
	if !isUnder(clean, home) {
		return fmt.Errorf("refusing to remove %q outside of %q", clean, home)
	}
	return nil
}
