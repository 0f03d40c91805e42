// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/identify"
)

// classifier memoizes file classification tags across hooks, so a file
// matched by thirty hooks is sniffed once. Not safe for concurrent use;
// filtering happens up front before any parallelism starts.
type classifier struct {
	workDir string
	cache   map[string][]string
}

func newClassifier(workDir string) *classifier {
	return &classifier{workDir: workDir, cache: make(map[string][]string)}
}

func (c *classifier) tags(path string) []string {
	if tags, ok := c.cache[path]; ok {
		return tags
	}
	tags := identify.TagsFromPath(filepath.Join(c.workDir, path))
	c.cache[path] = tags
	return tags
}

// MatchFiles reports which of the given files a hook applies to. The
// engine shares one classifier across all hooks; this entry point
// builds a fresh one and exists for the self-check hooks.
func MatchFiles(h *hook.Hook, files []string, workDir string) ([]string, error) {
	return matchFiles(h, files, newClassifier(workDir))
}

// matchFiles returns the subset of files a hook applies to, preserving
// input order. Name patterns use search semantics (a match anywhere in
// the path), mirroring how hook authors write them.
func matchFiles(h *hook.Hook, files []string, cls *classifier) ([]string, error) {
	var include, exclude *regexp.Regexp
	var err error
	if h.Files != "" {
		if include, err = regexp.Compile(h.Files); err != nil {
			return nil, fmt.Errorf("hook %s: invalid files pattern: %w", h.ID, err)
		}
	}
	if h.Exclude != "" {
		if exclude, err = regexp.Compile(h.Exclude); err != nil {
			return nil, fmt.Errorf("hook %s: invalid exclude pattern: %w", h.ID, err)
		}
	}

	var matched []string
	for _, f := range files {
		if include != nil && !include.MatchString(f) {
			continue
		}
		if exclude != nil && exclude.MatchString(f) {
			continue
		}
		if !tagsMatch(h, cls.tags(f)) {
			continue
		}
		matched = append(matched, f)
	}
	return matched, nil
}

// tagsMatch applies the three type filters: types is a conjunction,
// types_or a disjunction, exclude_types a rejection list.
func tagsMatch(h *hook.Hook, tags []string) bool {
	for _, want := range h.Types {
		if !identify.HasTag(tags, want) {
			return false
		}
	}
	if len(h.TypesOr) > 0 {
		any := false
		for _, want := range h.TypesOr {
			if identify.HasTag(tags, want) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, banned := range h.ExcludeTypes {
		if identify.HasTag(tags, banned) {
			return false
		}
	}
	return true
}
