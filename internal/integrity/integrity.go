// Package integrity provides content hashing for change detection.
// All functions are pure and deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashBytes produces the SHA-256 hex digest of raw content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile produces the SHA-256 hex digest of a file's raw bytes.
// The file is streamed, not loaded into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("integrity: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("integrity: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
