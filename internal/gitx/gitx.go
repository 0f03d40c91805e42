// SPDX-License-Identifier: MPL-2.0

// Package gitx wraps the git plumbing the engine consumes: candidate
// file discovery (changed, staged, all-tracked) and source checkout for
// remote hook repositories.
package gitx

import (
	"context"
	"fmt"
	"strings"

	"github.com/prekit/prekit/internal/runner"
)

// gitEnv keeps clones quiet and non-interactive so a bad URL fails fast
// instead of prompting for credentials.
var gitEnv = map[string]string{
	"GIT_TERMINAL_PROMPT": "0",
	"GIT_ASKPASS":         "echo",
}

// RepoRoot returns the top-level directory of the repository containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := runner.RunChecked(ctx, runner.Cmd{
		Name: "git",
		Args: []string{"rev-parse", "--show-toplevel"},
		Dir:  dir,
	})
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return strings.TrimSpace(string(out.Combined)), nil
}

// HooksDir returns the repository's hooks directory, honoring
// core.hooksPath and worktree layouts.
func HooksDir(ctx context.Context, root string) (string, error) {
	out, err := runner.RunChecked(ctx, runner.Cmd{
		Name: "git",
		Args: []string{"rev-parse", "--path-format=absolute", "--git-path", "hooks"},
		Dir:  root,
	})
	if err != nil {
		return "", fmt.Errorf("resolve hooks directory: %w", err)
	}
	return strings.TrimSpace(string(out.Combined)), nil
}

// StagedFiles lists files staged for commit, in git's sorted order.
// Deleted files are excluded: hooks operate on file contents.
func StagedFiles(ctx context.Context, root string) ([]string, error) {
	return zSplitOutput(ctx, root, []string{
		"diff", "--staged", "--name-only", "--diff-filter=ACMRTUXB", "-z",
	})
}

// ChangedFiles lists files that differ between two refs.
func ChangedFiles(ctx context.Context, root, fromRef, toRef string) ([]string, error) {
	return zSplitOutput(ctx, root, []string{
		"diff", "--name-only", "--diff-filter=ACMRTUXB", "-z",
		fromRef + "..." + toRef,
	})
}

// AllFiles lists every tracked file in the repository.
func AllFiles(ctx context.Context, root string) ([]string, error) {
	return zSplitOutput(ctx, root, []string{"ls-files", "-z"})
}

// HasUnmergedPaths reports whether the index holds merge-conflict
// entries. Runs fail fast on conflicts rather than feeding hooks
// half-merged files.
func HasUnmergedPaths(ctx context.Context, root string) (bool, error) {
	out, err := runner.RunChecked(ctx, runner.Cmd{
		Name: "git",
		Args: []string{"ls-files", "--unmerged"},
		Dir:  root,
	})
	if err != nil {
		return false, fmt.Errorf("list unmerged paths: %w", err)
	}
	return len(strings.TrimSpace(string(out.Combined))) > 0, nil
}

// Clone checks out a repository at an exact revision into dir. The
// clone is full, not shallow: hook repos pin arbitrary revs and a
// shallow fetch cannot resolve all of them.
func Clone(ctx context.Context, url, rev, dir string) error {
	steps := [][]string{
		{"init", "--quiet", "."},
		{"remote", "add", "origin", url},
		{"fetch", "--quiet", "origin", rev},
		{"checkout", "--quiet", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if _, err := runner.RunChecked(ctx, runner.Cmd{
			Name: "git",
			Args: args,
			Dir:  dir,
			Env:  gitEnv,
		}); err != nil {
			return fmt.Errorf("clone %s@%s: %w", url, rev, err)
		}
	}
	return nil
}

func zSplitOutput(ctx context.Context, root string, args []string) ([]string, error) {
	out, err := runner.RunChecked(ctx, runner.Cmd{Name: "git", Args: args, Dir: root})
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	var files []string
	for _, f := range strings.Split(string(out.Combined), "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}
