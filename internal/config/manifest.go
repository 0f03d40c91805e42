// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/prekit/prekit/internal/gitx"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/issue"
	"github.com/prekit/prekit/internal/store"
)

//go:embed manifest_schema.cue
var manifestSchema string

// Manifest file names a hook repository may carry, in lookup order.
// The pre-commit name is accepted so the existing ecosystem of hook
// repositories works unchanged.
var manifestFileNames = []string{".prekit-hooks.yaml", ".pre-commit-hooks.yaml", ".pre-commit-hooks.yml"}

// LoadManifest reads the hook manifest from a checked-out repository.
func LoadManifest(repoDir string) ([]ManifestHook, error) {
	for _, name := range manifestFileNames {
		path := filepath.Join(repoDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := validateAgainstSchema(manifestSchema, path, data); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", name, err)
		}
		// Lenient decode: manifests from the wider hook ecosystem may
		// carry fields we do not use (description and friends). The
		// schema above still enforces the required shape.
		var hooks []ManifestHook
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&hooks); err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", name, err)
		}
		return hooks, nil
	}
	return nil, fmt.Errorf("repository has no hook manifest (looked for %s)", manifestFileNames[0])
}

// ManifestLoader fetches the manifest for a configured repo source.
type ManifestLoader func(ctx context.Context, repo RepoConfig) ([]ManifestHook, error)

// StoreManifestLoader loads manifests from store-cached clones,
// cloning on first use. The same cache entry later serves environment
// installs, so the clone happens once per (repo, rev).
func StoreManifestLoader(st *store.Store) ManifestLoader {
	return func(ctx context.Context, repo RepoConfig) ([]ManifestHook, error) {
		src := hook.Source{Repo: repo.Repo, Rev: repo.Rev}
		dir, err := st.Acquire(ctx, store.AcquireOptions{
			Area: store.AreaRepos,
			Key:  src.String(),
			Build: func(ctx context.Context, dir string) error {
				return gitx.Clone(ctx, src.Repo, src.Rev, dir)
			},
		})
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("clone hook repository").
				WithResource(src.String()).
				WithSuggestion("Verify the repo URL and rev with 'git ls-remote'").
				WithSuggestion("Pin rev to a tag or commit hash").
				Wrap(err).
				BuildError()
		}
		return LoadManifest(dir)
	}
}

// MetaHooks are the self-check hooks available under `repo: meta`.
// They run through the prekit binary itself.
func MetaHooks() []ManifestHook {
	boolPtr := func(b bool) *bool { return &b }
	return []ManifestHook{
		{
			ID:            "check-hooks-apply",
			Name:          "check hooks apply to the repository",
			Entry:         "prekit builtin check-hooks-apply",
			Language:      string(hook.LanguageSystem),
			Files:         `^\.prekit\.ya?ml$`,
			PassFilenames: boolPtr(true),
		},
		{
			ID:            "check-useless-excludes",
			Name:          "check for useless excludes",
			Entry:         "prekit builtin check-useless-excludes",
			Language:      string(hook.LanguageSystem),
			Files:         `^\.prekit\.ya?ml$`,
			PassFilenames: boolPtr(true),
		},
	}
}
