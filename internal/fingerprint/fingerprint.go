// Package fingerprint computes content fingerprints used for change
// detection and deduplication keys.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// blockSize is the read granularity for file hashing. Files of any size
// hash in constant memory.
const blockSize = 8 * 1024

// File computes the hex fingerprint of a file's bytes by streaming
// fixed-size blocks.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Sum(f)
}

// Sum computes the hex fingerprint of everything readable from r.
func Sum(r io.Reader) (string, error) {
	h := md5.New()
	buf := make([]byte, blockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Text computes the fingerprint of a string. Used as the stable key for
// chunk-diff comparisons and memory entries.
func Text(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
