// SPDX-License-Identifier: MPL-2.0

// Package builtin holds the hooks that ship inside the prekit binary:
// a few common fixers plus the self-check hooks the "meta" repo
// exposes. Each builtin behaves like an external hook executable: it
// takes file arguments, writes findings to stdout, and reports a
// process-style exit code.
package builtin

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/prekit/prekit/internal/config"
)

// Env is what a builtin may need beyond its arguments. Manifests is
// only consulted by the self-checks, which resolve the full hook list.
type Env struct {
	WorkDir   string
	Stdout    io.Writer
	Manifests config.ManifestLoader
}

// Func runs one builtin over its command-line arguments (flags plus
// filenames) and returns the exit code. A non-nil error means the
// builtin itself broke, not that a check failed.
type Func func(ctx context.Context, env *Env, args []string) (int, error)

var registry = map[string]Func{
	"trailing-whitespace":     trailingWhitespace,
	"end-of-file-fixer":       endOfFileFixer,
	"check-added-large-files": checkAddedLargeFiles,
	"check-hooks-apply":       checkHooksApply,
	"check-useless-excludes":  checkUselessExcludes,
}

// Lookup returns the builtin registered under name.
func Lookup(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin %q (have %v)", name, Names())
	}
	return fn, nil
}

// Names lists the registered builtins, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
