// SPDX-License-Identifier: MPL-2.0

// Package store implements the shared on-disk cache of cloned hook
// sources, built environments, and managed toolchains. Entries are keyed
// by content identity and guarded by per-key advisory lock files so
// concurrent processes serialize instead of racing; a builder's partial
// work is never visible because entries are staged in a temporary
// directory and renamed into place only on success.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store areas, one subdirectory per entry kind.
const (
	AreaRepos      Area = "repos"
	AreaEnvs       Area = "envs"
	AreaToolchains Area = "toolchains"
)

const readmeContent = "This directory is maintained by prekit.\n" +
	"It caches cloned hook repositories, built hook environments, and\n" +
	"managed language toolchains. Safe to delete; prekit rebuilds it on demand.\n"

type (
	// Area names a store subdirectory.
	Area string

	// Store is an explicit handle on the cache root. It is shared
	// mutable state across OS processes: all mutation goes through
	// per-key file locks plus atomic renames, never in-process mutexes.
	Store struct {
		root string
	}

	// BuildFunc materializes an entry into dir. The directory exists
	// and is empty when called; it becomes the published entry only if
	// the builder returns nil.
	BuildFunc func(ctx context.Context, dir string) error

	// AcquireOptions describe one cache lookup-or-build.
	AcquireOptions struct {
		Area Area
		Key  string
		// Build is invoked only when no valid entry exists.
		Build BuildFunc
		// Validate, when set, decides whether an existing entry is
		// still usable. Returning false forces a rebuild under the
		// same lock, which covers missing or corrupt install markers.
		Validate func(dir string) bool
	}
)

// Open initializes a store at root, creating the area layout.
func Open(root string) (*Store, error) {
	for _, area := range []Area{AreaRepos, AreaEnvs, AreaToolchains} {
		if err := os.MkdirAll(filepath.Join(root, string(area)), 0o755); err != nil {
			return nil, fmt.Errorf("create store area %s: %w", area, err)
		}
	}
	readme := filepath.Join(root, "README")
	if _, err := os.Stat(readme); err != nil {
		if writeErr := os.WriteFile(readme, []byte(readmeContent), 0o644); writeErr != nil {
			return nil, fmt.Errorf("write store README: %w", writeErr)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

// Path returns where an entry for key lives (whether or not it exists).
func (s *Store) Path(area Area, key string) string {
	return filepath.Join(s.root, string(area), dirName(key))
}

// Acquire returns the filesystem path for a cache entry, materializing
// it via opts.Build if absent or invalid. Concurrent callers for the
// same key block on a per-key lock until the first completes, then
// observe the same completed path; callers for different keys proceed
// independently.
func (s *Store) Acquire(ctx context.Context, opts AcquireOptions) (string, error) {
	entry := s.Path(opts.Area, opts.Key)

	lock, err := acquireLock(ctx, entry+".lock")
	if err != nil {
		return "", fmt.Errorf("lock store entry %s: %w", opts.Key, err)
	}
	defer lock.Release()

	if info, statErr := os.Stat(entry); statErr == nil && info.IsDir() {
		if opts.Validate == nil || opts.Validate(entry) {
			slog.Debug("store hit", "area", opts.Area, "key", opts.Key)
			return entry, nil
		}
		slog.Warn("store entry invalid, rebuilding", "area", opts.Area, "key", opts.Key)
		if err := os.RemoveAll(entry); err != nil {
			return "", fmt.Errorf("remove invalid store entry %s: %w", opts.Key, err)
		}
	}

	if opts.Build == nil {
		return "", &NotCachedError{Area: opts.Area, Key: opts.Key}
	}

	// Stage into a temp sibling, publish with a single rename. A crash
	// mid-build leaves only an orphaned dot-directory that Sweep and
	// GC skip and reclaim.
	tmp, err := os.MkdirTemp(filepath.Dir(entry), "."+dirName(opts.Key)+".tmp-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	slog.Debug("store miss, building", "area", opts.Area, "key", opts.Key)
	if err := opts.Build(ctx, tmp); err != nil {
		return "", fmt.Errorf("build store entry %s: %w", opts.Key, err)
	}
	if err := os.Rename(tmp, entry); err != nil {
		return "", fmt.Errorf("publish store entry %s: %w", opts.Key, err)
	}
	return entry, nil
}

// Remove deletes an entry and its lock file, serializing with any
// in-flight acquisition for the same key.
func (s *Store) Remove(ctx context.Context, area Area, key string) error {
	entry := s.Path(area, key)
	lock, err := acquireLock(ctx, entry+".lock")
	if err != nil {
		return fmt.Errorf("lock store entry %s: %w", key, err)
	}
	defer func() {
		lock.Release()
		os.Remove(entry + ".lock")
	}()

	if err := os.RemoveAll(entry); err != nil {
		return fmt.Errorf("remove store entry %s: %w", key, err)
	}
	return nil
}

// Entries lists the published entry directory names in an area,
// skipping staging directories and lock files.
func (s *Store) Entries(area Area) ([]string, error) {
	dir := filepath.Join(s.root, string(area))
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store area %s: %w", area, err)
	}
	var names []string
	for _, item := range items {
		name := item.Name()
		if !item.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Sweep removes every entry in an area for which keep returns false,
// plus any abandoned staging directories. It acquires each entry's lock
// first so it cannot race an in-flight acquisition. Returns the number
// of entries removed.
func (s *Store) Sweep(ctx context.Context, area Area, keep func(name string) bool) (int, error) {
	dir := filepath.Join(s.root, string(area))
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read store area %s: %w", area, err)
	}

	removed := 0
	for _, item := range items {
		name := item.Name()
		if strings.HasSuffix(name, ".lock") {
			continue
		}
		path := filepath.Join(dir, name)
		if strings.HasPrefix(name, ".") {
			// Abandoned staging directory from a crashed build.
			if err := os.RemoveAll(path); err == nil {
				removed++
			}
			continue
		}
		if keep != nil && keep(name) {
			continue
		}

		lock, err := acquireLock(ctx, path+".lock")
		if err != nil {
			return removed, fmt.Errorf("lock store entry %s: %w", name, err)
		}
		err = os.RemoveAll(path)
		lock.Release()
		os.Remove(path + ".lock")
		if err != nil {
			return removed, fmt.Errorf("remove store entry %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// NotCachedError is returned by Acquire when no entry exists and no
// builder was supplied.
type NotCachedError struct {
	Area Area
	Key  string
}

func (e *NotCachedError) Error() string {
	return fmt.Sprintf("store entry %s/%s is not cached", e.Area, e.Key)
}

// EntryName maps a key to the directory name Acquire publishes under,
// so callers can correlate Entries output with keys they know about.
func EntryName(key string) string { return dirName(key) }

// dirName maps an arbitrary key to a filesystem-safe directory name.
// Already-safe keys (environment key IDs) pass through; anything else
// (repository URLs) keeps a recognizable slug plus a digest.
func dirName(key string) string {
	safe := true
	for _, r := range key {
		if !isSafeKeyRune(r) {
			safe = false
			break
		}
	}
	if safe && key != "" && !strings.HasPrefix(key, ".") {
		return key
	}

	sum := sha256.Sum256([]byte(key))
	slug := strings.Map(func(r rune) rune {
		if isSafeKeyRune(r) {
			return r
		}
		return '-'
	}, key)
	slug = strings.Trim(slug, "-.")
	const maxSlug = 40
	if len(slug) > maxSlug {
		slug = slug[len(slug)-maxSlug:]
	}
	if slug == "" {
		slug = "entry"
	}
	return slug + "-" + hex.EncodeToString(sum[:8])
}

func isSafeKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}

// DiskUsage walks an area and sums file sizes, for `prekit gc` output.
func (s *Store) DiskUsage(area Area) (int64, error) {
	var total int64
	root := filepath.Join(s.root, string(area))
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, infoErr := d.Info(); infoErr == nil {
				total += info.Size()
			}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return total, err
	}
	return total, nil
}
