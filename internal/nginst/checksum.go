package nginst

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"
)

// fileDigest returns the BLAKE3-256 hex digest of the file at path.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyChecksum compares the digest of path with expected. An empty
// expected digest skips verification.
func verifyChecksum(path, expected string) error {
	if expected == "" {
		return nil
	}
	sum, err := fileDigest(path)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	if !strings.EqualFold(sum, expected) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", path, expected, sum)
	}
	return nil
}
