// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"os"

	"github.com/prekit/prekit/internal/config"
	"github.com/prekit/prekit/internal/container"
	"github.com/prekit/prekit/internal/engine"
	"github.com/prekit/prekit/internal/gitx"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/issue"
	"github.com/prekit/prekit/internal/language"
	"github.com/prekit/prekit/internal/store"
	"github.com/prekit/prekit/internal/toolchain"
)

// app bundles the pieces every subcommand needs: machine settings,
// the shared store, and the repository the command was invoked in.
type app struct {
	settings *config.Settings
	store    *store.Store
	root     string
	cfgPath  string
	cfg      *config.ProjectConfig
}

// loadApp resolves settings, the enclosing git repository and its
// project config. Commands that only touch the cache use loadStore.
func loadApp(ctx context.Context) (*app, error) {
	settings, st, err := loadStore()
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := gitx.RepoRoot(ctx, wd)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("locate git repository").
			WithResource(wd).
			WithSuggestion("Run prekit from inside a git worktree").
			WithSuggestion("Run 'git init' if this should become one").
			Wrap(err).
			BuildError()
	}

	cfgPath, err := config.FindProjectFile(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadProject(cfgPath)
	if err != nil {
		return nil, err
	}

	return &app{settings: settings, store: st, root: root, cfgPath: cfgPath, cfg: cfg}, nil
}

func loadStore() (*config.Settings, *store.Store, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(settings.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	return settings, st, nil
}

func (a *app) manifests() config.ManifestLoader {
	return config.StoreManifestLoader(a.store)
}

func (a *app) hooks(ctx context.Context) ([]*hook.Hook, error) {
	return config.BuildHooks(ctx, a.cfg, a.manifests())
}

func (a *app) engine() *engine.Engine {
	reg := language.NewRegistry(a.enginePreference())
	return engine.New(a.store, toolchain.NewManager(a.store), reg, a.root)
}

func (a *app) enginePreference() container.EngineType {
	if a.settings.ContainerEngine == string(container.EnginePodman) {
		return container.EnginePodman
	}
	return container.EngineDocker
}
