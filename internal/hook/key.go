// SPDX-License-Identifier: MPL-2.0

package hook

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"
)

// EnvironmentKey is the derived identity that decides environment
// sharing: (language, resolved version, sorted dependency set). Two
// hooks with equal keys share exactly one on-disk environment. A version
// or dependency change produces a new key, never an in-place upgrade.
type EnvironmentKey struct {
	Language Language
	// Version is the concrete resolved toolchain version, not the
	// request string, so "3.11" and "3.11.4" converge once resolved.
	Version string
	// Dependencies is sorted and deduplicated, including the source
	// identity for remote hooks.
	Dependencies []string
}

// NewEnvironmentKey normalizes the dependency set into a key.
func NewEnvironmentKey(lang Language, version string, deps []string) EnvironmentKey {
	sorted := slices.Clone(deps)
	slices.Sort(sorted)
	return EnvironmentKey{
		Language:     lang,
		Version:      version,
		Dependencies: slices.Compact(sorted),
	}
}

// Equal reports component-wise equality.
func (k EnvironmentKey) Equal(other EnvironmentKey) bool {
	return k.Language == other.Language &&
		k.Version == other.Version &&
		slices.Equal(k.Dependencies, other.Dependencies)
}

// ID returns the stable store identity: the language tag plus a
// truncated digest over all components. Components are length-prefixed
// before hashing so no two distinct keys can collide by concatenation.
func (k EnvironmentKey) ID() string {
	h := sha256.New()
	writeFramed(h, string(k.Language))
	writeFramed(h, k.Version)
	for _, d := range k.Dependencies {
		writeFramed(h, d)
	}
	sum := h.Sum(nil)
	return string(k.Language) + "-" + hex.EncodeToString(sum[:16])
}

func (k EnvironmentKey) String() string { return k.ID() }

func writeFramed(h interface{ Write([]byte) (int, error) }, s string) {
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(s)))
	h.Write(length[:])
	h.Write([]byte(s))
}
