// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/prekit/prekit/internal/config"
	"github.com/prekit/prekit/internal/engine"
	"github.com/prekit/prekit/internal/gitx"
	"github.com/prekit/prekit/internal/hook"
)

// checkHooksApply flags configured hooks that can never run: their
// file filters match nothing tracked in the repository.
func checkHooksApply(ctx context.Context, env *Env, _ []string) (int, error) {
	hooks, files, err := resolveProject(ctx, env)
	if err != nil {
		return 0, err
	}

	failed := false
	for _, h := range hooks {
		if h.AlwaysRun || h.Source.IsMeta() {
			continue
		}
		matched, err := engine.MatchFiles(h, files, env.WorkDir)
		if err != nil {
			return 0, err
		}
		if len(matched) == 0 {
			fmt.Fprintf(env.Stdout, "%s does not apply to this repository\n", h.ID)
			failed = true
		}
	}
	if failed {
		return 1, nil
	}
	return 0, nil
}

// checkUselessExcludes flags exclude patterns that exclude nothing:
// the project-wide one, and each hook's own against the files that
// hook would otherwise see.
func checkUselessExcludes(ctx context.Context, env *Env, _ []string) (int, error) {
	path, err := config.FindProjectFile(env.WorkDir)
	if err != nil {
		return 0, err
	}
	cfg, err := config.LoadProject(path)
	if err != nil {
		return 0, err
	}
	files, err := gitx.AllFiles(ctx, env.WorkDir)
	if err != nil {
		return 0, err
	}

	failed := false
	if cfg.Exclude != "" && !excludesAny(cfg.Exclude, files) {
		fmt.Fprintf(env.Stdout, "The global exclude pattern %q does not match any files\n", cfg.Exclude)
		failed = true
	}

	hooks, err := config.BuildHooks(ctx, cfg, env.Manifests)
	if err != nil {
		return 0, err
	}
	for _, h := range hooks {
		if h.Exclude == "" || h.Source.IsMeta() {
			continue
		}
		// Match without the exclude, then see whether the exclude
		// would have removed anything from that set.
		unexcluded := *h
		unexcluded.Exclude = ""
		candidates, err := engine.MatchFiles(&unexcluded, files, env.WorkDir)
		if err != nil {
			return 0, err
		}
		if !excludesAny(h.Exclude, candidates) {
			fmt.Fprintf(env.Stdout, "The exclude pattern %q for %s does not match any files\n", h.Exclude, h.ID)
			failed = true
		}
	}
	if failed {
		return 1, nil
	}
	return 0, nil
}

func excludesAny(pattern string, files []string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return true
	}
	for _, f := range files {
		if re.MatchString(f) {
			return true
		}
	}
	return false
}

func resolveProject(ctx context.Context, env *Env) ([]*hook.Hook, []string, error) {
	path, err := config.FindProjectFile(env.WorkDir)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadProject(path)
	if err != nil {
		return nil, nil, err
	}
	files, err := gitx.AllFiles(ctx, env.WorkDir)
	if err != nil {
		return nil, nil, err
	}
	files, err = cfg.FilterFiles(files)
	if err != nil {
		return nil, nil, err
	}
	hooks, err := config.BuildHooks(ctx, cfg, env.Manifests)
	if err != nil {
		return nil, nil, err
	}
	return hooks, files, nil
}
