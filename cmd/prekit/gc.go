// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/issue"
	"github.com/prekit/prekit/internal/store"
)

// gcCmd drops cache entries the current project no longer references:
// clones of repos that left the config, and environments built for
// them. Toolchains are kept; they are shared across projects and
// keyed by concrete version, so staleness does not accumulate.
var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Drop cache entries the current project no longer references",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}

		referenced := make(map[string]bool)
		sources := make(map[string]bool)
		for _, repo := range a.cfg.Repos {
			src := hook.Source{Repo: repo.Repo, Rev: repo.Rev}
			if src.IsRemote() {
				referenced[store.EntryName(src.String())] = true
				sources[src.String()] = true
			}
		}

		removedRepos, err := a.store.Sweep(ctx, store.AreaRepos, func(name string) bool {
			return referenced[name]
		})
		if err != nil {
			return issue.WrapWithOperation(err, "sweep repository cache")
		}

		// An environment is referenced when its marker's dependency
		// set names a referenced source, or when it has no source
		// dependency at all (local hooks).
		removedEnvs, err := a.store.Sweep(ctx, store.AreaEnvs, func(name string) bool {
			m, err := store.ReadMarker(a.store.Path(store.AreaEnvs, name))
			if err != nil {
				return false
			}
			for _, dep := range m.Dependencies {
				if sources[dep] {
					return true
				}
				if looksLikeSource(dep) {
					return false
				}
			}
			return true
		})
		if err != nil {
			return issue.WrapWithOperation(err, "sweep environment cache")
		}

		usage, _ := a.store.DiskUsage(store.AreaEnvs)
		fmt.Printf("removed %d repos, %d environments; envs now use %d MiB\n",
			removedRepos, removedEnvs, usage/(1024*1024))
		return nil
	},
}

// looksLikeSource distinguishes the source identity a remote hook
// injects into its dependency set from ordinary package requirements.
func looksLikeSource(dep string) bool {
	return strings.Contains(dep, "://")
}
