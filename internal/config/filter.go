// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"regexp"
)

// FilterFiles applies the project-wide files/exclude patterns to a
// candidate list. Hook-level patterns are applied later per hook; this
// trims what any hook can ever see.
func (c *ProjectConfig) FilterFiles(files []string) ([]string, error) {
	var include, exclude *regexp.Regexp
	var err error
	if c.Files != "" {
		if include, err = regexp.Compile(c.Files); err != nil {
			return nil, fmt.Errorf("project files pattern: %w", err)
		}
	}
	if c.Exclude != "" {
		if exclude, err = regexp.Compile(c.Exclude); err != nil {
			return nil, fmt.Errorf("project exclude pattern: %w", err)
		}
	}
	if include == nil && exclude == nil {
		return files, nil
	}
	kept := make([]string, 0, len(files))
	for _, f := range files {
		if include != nil && include.FindStringIndex(f) == nil {
			continue
		}
		if exclude != nil && exclude.FindStringIndex(f) != nil {
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}
