// SPDX-License-Identifier: MPL-2.0

// Package toolchain resolves a (language, version request) pair to a
// concrete installed runtime, preferring store-managed installs, then
// acceptable system installations, then a fresh managed install.
package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/store"
)

// Toolchain sources.
const (
	SourceSystem  Source = "system"
	SourceManaged Source = "managed"
)

// minimumVersions are the per-language floors below which a system
// installation is rejected even when it satisfies the hook's request.
var minimumVersions = map[hook.Language]string{
	hook.LanguagePython: "3.8.0",
	hook.LanguageNode:   "16.0.0",
	hook.LanguageGolang: "1.21.0",
}

type (
	// Source records where a toolchain came from.
	Source string

	// Toolchain is an installed language runtime satisfying a version
	// constraint. Shared by every environment needing a compatible
	// version; immutable after resolution.
	Toolchain struct {
		Language hook.Language
		// Version is the concrete version, e.g. "3.11.9".
		Version string
		// Exe is the absolute path of the primary executable.
		Exe string
		// Root is the managed install root; empty for system installs.
		Root   string
		Source Source
	}

	// Manager resolves and installs toolchains. Lookups are memoized
	// for the lifetime of a run: once resolved, a (language, request)
	// pair cannot change underneath the scheduler.
	Manager struct {
		store *store.Store

		mu    sync.Mutex
		cache map[string]*Toolchain
	}

	// UnresolvableError means no candidate toolchain exists anywhere,
	// including a network install attempt. Fatal for every hook that
	// shares the requirement, not for unrelated hooks.
	UnresolvableError struct {
		Language hook.Language
		Request  string
		Reason   string
	}
)

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("no %s toolchain satisfies %q: %s", e.Language, e.Request, e.Reason)
}

// NewManager creates a Manager backed by the given store.
func NewManager(st *store.Store) *Manager {
	return &Manager{store: st, cache: make(map[string]*Toolchain)}
}

// Resolve finds or installs a toolchain for the language and request.
// Resolution order: store-managed install that already satisfies the
// request, then a system installation that satisfies both the request
// and the language's minimum floor, then a fresh managed install.
func (m *Manager) Resolve(ctx context.Context, lang hook.Language, req hook.VersionRequest) (*Toolchain, error) {
	cacheKey := string(lang) + "\x00" + req.String()
	m.mu.Lock()
	if tc, ok := m.cache[cacheKey]; ok {
		m.mu.Unlock()
		return tc, nil
	}
	m.mu.Unlock()

	tc, err := m.resolveUncached(ctx, lang, req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[cacheKey] = tc
	m.mu.Unlock()
	return tc, nil
}

func (m *Manager) resolveUncached(ctx context.Context, lang hook.Language, req hook.VersionRequest) (*Toolchain, error) {
	if tc := m.findManaged(lang, req); tc != nil {
		slog.Debug("toolchain resolved from store", "language", lang, "version", tc.Version)
		return tc, nil
	}

	if tc := probeSystem(ctx, lang, req); tc != nil {
		slog.Debug("toolchain resolved from system", "language", lang, "version", tc.Version, "exe", tc.Exe)
		return tc, nil
	}

	tc, err := m.installManaged(ctx, lang, req)
	if err != nil {
		return nil, err
	}
	slog.Info("installed toolchain", "language", lang, "version", tc.Version)
	return tc, nil
}

// findManaged scans store-managed installs for one satisfying the
// request. Entry names are "<language>-<version>".
func (m *Manager) findManaged(lang hook.Language, req hook.VersionRequest) *Toolchain {
	entries, err := m.store.Entries(store.AreaToolchains)
	if err != nil {
		return nil
	}
	prefix := string(lang) + "-"
	var best *Toolchain
	for _, name := range entries {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		version := strings.TrimPrefix(name, prefix)
		if !req.Matches(version) {
			continue
		}
		root := m.store.Path(store.AreaToolchains, name)
		exe := findExecutable(root, executableNames(lang)...)
		if exe == "" {
			continue
		}
		if best == nil || compareVersions(version, best.Version) > 0 {
			best = &Toolchain{Language: lang, Version: version, Exe: exe, Root: root, Source: SourceManaged}
		}
	}
	return best
}

// meetsFloor rejects versions below the language's minimum-supported
// floor. Managed installs always target supported versions; the floor
// guards against stale system installations.
func meetsFloor(lang hook.Language, version string) bool {
	floor, ok := minimumVersions[lang]
	if !ok {
		return true
	}
	return compareVersions(version, floor) >= 0
}

// executableNames returns candidate primary executable names per
// language, in preference order.
func executableNames(lang hook.Language) []string {
	switch lang {
	case hook.LanguagePython:
		return []string{"python3", "python"}
	case hook.LanguageNode:
		return []string{"node"}
	case hook.LanguageGolang:
		return []string{"go"}
	}
	return nil
}

// findExecutable locates one of names under root, checking the
// conventional bin/ layouts managed installs produce. uv-managed
// pythons live one directory level down.
func findExecutable(root string, names ...string) string {
	var candidates []string
	for _, name := range names {
		candidates = append(candidates,
			filepath.Join(root, "bin", name),
			filepath.Join(root, name),
		)
	}
	items, _ := os.ReadDir(root)
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		for _, name := range names {
			candidates = append(candidates, filepath.Join(root, item.Name(), "bin", name))
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return c
		}
	}
	return ""
}

// compareVersions compares dotted numeric versions, treating missing
// components as zero. Returns -1, 0, or 1.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = atoiSafe(as[i])
		}
		if i < len(bs) {
			bv = atoiSafe(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
