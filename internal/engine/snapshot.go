// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
)

// fileDigest is a content hash, or the zero value for files that do not
// exist or cannot be read.
type fileDigest [sha256.Size]byte

// snapshotFiles hashes each file's content so a fixer's writes can be
// detected after the run. Unreadable files hash to the zero digest;
// what matters is that the value is stable when the content is.
func snapshotFiles(workDir string, files []string) map[string]fileDigest {
	snap := make(map[string]fileDigest, len(files))
	for _, f := range files {
		snap[f] = digestFile(filepath.Join(workDir, f))
	}
	return snap
}

// modifiedSince reports whether any file's content differs from the
// snapshot. Creation and deletion both count as modification.
func modifiedSince(workDir string, files []string, before map[string]fileDigest) bool {
	for _, f := range files {
		if digestFile(filepath.Join(workDir, f)) != before[f] {
			return true
		}
	}
	return false
}

func digestFile(path string) fileDigest {
	var zero fileDigest
	f, err := os.Open(path)
	if err != nil {
		return zero
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return zero
	}
	var d fileDigest
	copy(d[:], h.Sum(nil))
	return d
}
