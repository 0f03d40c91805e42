// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/prekit/prekit/internal/hook"
)

// CurrentVersion is stamped by the build and checked against each
// hook's minimum_prekit_version. Empty means a development build,
// which passes every check.
var CurrentVersion = ""

// BuildHooks resolves the project configuration into the executable
// hook list: manifests are fetched per repo, project overrides merged
// on top, and defaults filled in. Hooks come back in declaration
// order with Index assigned.
func BuildHooks(ctx context.Context, cfg *ProjectConfig, load ManifestLoader) ([]*hook.Hook, error) {
	var hooks []*hook.Hook
	for _, repo := range cfg.Repos {
		manifest, src, err := manifestFor(ctx, repo, load)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*ManifestHook, len(manifest))
		for i := range manifest {
			byID[manifest[i].ID] = &manifest[i]
		}

		for _, ov := range repo.Hooks {
			var base *ManifestHook
			if src.IsLocal() {
				b, err := localBase(ov)
				if err != nil {
					return nil, err
				}
				base = b
			} else {
				base = byID[ov.ID]
				if base == nil {
					return nil, fmt.Errorf("repo %s declares no hook %q", src, ov.ID)
				}
			}
			h, err := mergeHook(base, ov, cfg, src)
			if err != nil {
				return nil, err
			}
			h.Index = len(hooks)
			hooks = append(hooks, h)
		}
	}
	return hooks, nil
}

func manifestFor(ctx context.Context, repo RepoConfig, load ManifestLoader) ([]ManifestHook, hook.Source, error) {
	switch repo.Repo {
	case hook.SourceLocal:
		return nil, hook.Source{Repo: hook.SourceLocal}, nil
	case hook.SourceMeta:
		return MetaHooks(), hook.Source{Repo: hook.SourceMeta}, nil
	default:
		src := hook.Source{Repo: repo.Repo, Rev: repo.Rev}
		manifest, err := load(ctx, repo)
		if err != nil {
			return nil, src, err
		}
		return manifest, src, nil
	}
}

// localBase treats a local hook's override block as its definition.
func localBase(ov HookOverride) (*ManifestHook, error) {
	if ov.Entry == "" || ov.Language == "" {
		return nil, fmt.Errorf("local hook %q must declare entry and language", ov.ID)
	}
	return &ManifestHook{
		ID:       ov.ID,
		Name:     ov.Name,
		Entry:    ov.Entry,
		Language: ov.Language,
	}, nil
}

func mergeHook(base *ManifestHook, ov HookOverride, cfg *ProjectConfig, src hook.Source) (*hook.Hook, error) {
	if err := checkMinimumVersion(base); err != nil {
		return nil, err
	}

	h := &hook.Hook{
		ID:       base.ID,
		Name:     firstNonEmpty(ov.Name, base.Name, base.ID),
		Alias:    ov.Alias,
		Entry:    firstNonEmpty(ov.Entry, base.Entry),
		Language: hook.Language(firstNonEmpty(ov.Language, base.Language)),

		Args:                   firstNonNil(ov.Args, base.Args),
		AdditionalDependencies: firstNonNil(ov.AdditionalDependencies, base.AdditionalDependencies),
		LanguageVersion:        firstNonEmpty(ov.LanguageVersion, base.LanguageVersion),

		Files:        firstNonEmpty(ov.Files, base.Files),
		Exclude:      firstNonEmpty(ov.Exclude, base.Exclude),
		Types:        firstNonNil(ov.Types, base.Types),
		TypesOr:      firstNonNil(ov.TypesOr, base.TypesOr),
		ExcludeTypes: firstNonNil(ov.ExcludeTypes, base.ExcludeTypes),

		AlwaysRun:     orBool(ov.AlwaysRun, base.AlwaysRun),
		FailFast:      orBool(ov.FailFast, base.FailFast),
		PassFilenames: orBoolPtr(ov.PassFilenames, base.PassFilenames, true),
		RequireSerial: orBool(ov.RequireSerial, base.RequireSerial),
		Verbose:       orBool(ov.Verbose, false),
		LogFile:       ov.LogFile,

		Source: src,
	}
	if !h.Language.Valid() {
		return nil, fmt.Errorf("hook %q: unknown language %q", h.ID, h.Language)
	}
	if len(h.Types) == 0 && len(h.TypesOr) == 0 {
		h.Types = []string{"file"}
	}

	rawStages := ov.Stages
	if len(rawStages) == 0 {
		rawStages = base.Stages
	}
	if len(rawStages) == 0 {
		rawStages = cfg.DefaultStages
	}
	for _, s := range rawStages {
		stage, err := hook.ParseStage(s)
		if err != nil {
			return nil, fmt.Errorf("hook %q: %w", h.ID, err)
		}
		h.Stages = append(h.Stages, stage)
	}
	return h, nil
}

func checkMinimumVersion(base *ManifestHook) error {
	if base.MinimumVersion == "" || CurrentVersion == "" {
		return nil
	}
	want, have := "v"+base.MinimumVersion, "v"+CurrentVersion
	if !semver.IsValid(want) || !semver.IsValid(have) {
		return nil
	}
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("hook %q requires prekit >= %s (running %s)",
			base.ID, base.MinimumVersion, CurrentVersion)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...[]string) []string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func orBool(p *bool, fallback bool) bool {
	if p != nil {
		return *p
	}
	return fallback
}

func orBoolPtr(override, base *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	if base != nil {
		return *base
	}
	return fallback
}
