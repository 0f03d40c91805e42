// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prekit/prekit/internal/hook"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".prekit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProject(t *testing.T) {
	path := writeProject(t, `
repos:
  - repo: https://github.com/psf/black
    rev: 24.3.0
    hooks:
      - id: black
        args: ["--line-length", "100"]
  - repo: local
    hooks:
      - id: lint
        name: run lint
        entry: make lint
        language: system
        pass_filenames: false
files: '\.py$'
fail_fast: true
default_stages: [pre-commit, pre-push]
`)
	cfg, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(cfg.Repos) != 2 {
		t.Fatalf("repos = %d, want 2", len(cfg.Repos))
	}
	if cfg.Repos[0].Rev != "24.3.0" {
		t.Errorf("rev = %q", cfg.Repos[0].Rev)
	}
	if !cfg.FailFast {
		t.Error("fail_fast not set")
	}
	pf := cfg.Repos[1].Hooks[0].PassFilenames
	if pf == nil || *pf {
		t.Error("pass_filenames should decode to explicit false")
	}
}

func TestLoadProjectRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIn  string
	}{
		{
			name: "unknown language",
			content: `
repos:
  - repo: local
    hooks:
      - id: x
        entry: x
        language: cobol
`,
			wantIn: "language",
		},
		{
			name: "remote repo without rev",
			content: `
repos:
  - repo: https://github.com/psf/black
    hooks:
      - id: black
`,
			wantIn: "rev",
		},
		{
			name: "unknown field",
			content: `
repos: []
minimum_wage: true
`,
			wantIn: "minimum_wage",
		},
		{
			name: "bad stage",
			content: `
repos: []
default_stages: [pre-flight]
`,
			wantIn: "default_stages",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProject(t, tt.content)
			_, err := LoadProject(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q does not mention %q", err, tt.wantIn)
			}
		})
	}
}

func TestFindProjectFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindProjectFile(dir); err == nil {
		t.Fatal("expected error for empty dir")
	}
	want := filepath.Join(dir, ".prekit.yml")
	if err := os.WriteFile(want, []byte("repos: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FindProjectFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("found %q, want %q", got, want)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `
- id: check
  name: run checks
  entry: check-files
  language: python
  types: [python]
  additional_dependencies: ["tomli>=2"]
`
	if err := os.WriteFile(filepath.Join(dir, ".pre-commit-hooks.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	hooks, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(hooks) != 1 || hooks[0].ID != "check" {
		t.Fatalf("hooks = %+v", hooks)
	}
	if hooks[0].AdditionalDependencies[0] != "tomli>=2" {
		t.Errorf("deps = %v", hooks[0].AdditionalDependencies)
	}
}

func TestLoadManifestRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	manifest := "- id: check\n  name: run checks\n"
	if err := os.WriteFile(filepath.Join(dir, ".prekit-hooks.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil {
		t.Fatal("expected error for manifest missing entry and language")
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := LoadManifest(t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}

func staticLoader(hooks []ManifestHook) ManifestLoader {
	return func(context.Context, RepoConfig) ([]ManifestHook, error) {
		return hooks, nil
	}
}

func TestBuildHooksMerge(t *testing.T) {
	truth := true
	cfg := &ProjectConfig{
		DefaultStages: []string{"pre-push"},
		Repos: []RepoConfig{{
			Repo: "https://example.com/hooks",
			Rev:  "v1.0.0",
			Hooks: []HookOverride{{
				ID:        "fmt",
				Args:      []string{"--fix"},
				AlwaysRun: &truth,
			}},
		}},
	}
	manifest := []ManifestHook{{
		ID:       "fmt",
		Name:     "format sources",
		Entry:    "fmt-tool",
		Language: "python",
		Args:     []string{"--check"},
		Types:    []string{"python"},
	}}

	hooks, err := BuildHooks(context.Background(), cfg, staticLoader(manifest))
	if err != nil {
		t.Fatalf("BuildHooks: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("hooks = %d", len(hooks))
	}
	h := hooks[0]
	if h.Name != "format sources" {
		t.Errorf("Name = %q", h.Name)
	}
	if len(h.Args) != 1 || h.Args[0] != "--fix" {
		t.Errorf("Args = %v, override should win", h.Args)
	}
	if !h.AlwaysRun {
		t.Error("AlwaysRun override lost")
	}
	if !h.PassFilenames {
		t.Error("PassFilenames should default true")
	}
	if len(h.Stages) != 1 || h.Stages[0] != hook.StagePrePush {
		t.Errorf("Stages = %v, want project default", h.Stages)
	}
	if !h.Source.IsRemote() || h.Source.Rev != "v1.0.0" {
		t.Errorf("Source = %+v", h.Source)
	}
}

func TestBuildHooksDefaultsTypesToFile(t *testing.T) {
	cfg := &ProjectConfig{Repos: []RepoConfig{{
		Repo:  "local",
		Hooks: []HookOverride{{ID: "a", Entry: "true", Language: "system"}},
	}}}
	hooks, err := BuildHooks(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hooks[0].Types) != 1 || hooks[0].Types[0] != "file" {
		t.Errorf("Types = %v", hooks[0].Types)
	}
}

func TestBuildHooksLocalRequiresDefinition(t *testing.T) {
	cfg := &ProjectConfig{Repos: []RepoConfig{{
		Repo:  "local",
		Hooks: []HookOverride{{ID: "a"}},
	}}}
	if _, err := BuildHooks(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for local hook without entry")
	}
}

func TestBuildHooksUnknownID(t *testing.T) {
	cfg := &ProjectConfig{Repos: []RepoConfig{{
		Repo:  "https://example.com/hooks",
		Rev:   "v1",
		Hooks: []HookOverride{{ID: "nope"}},
	}}}
	_, err := BuildHooks(context.Background(), cfg, staticLoader(nil))
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildHooksMetaRepo(t *testing.T) {
	cfg := &ProjectConfig{Repos: []RepoConfig{{
		Repo: "meta",
		Hooks: []HookOverride{
			{ID: "check-hooks-apply"},
			{ID: "check-useless-excludes"},
		},
	}}}
	hooks, err := BuildHooks(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hooks) != 2 {
		t.Fatalf("hooks = %d", len(hooks))
	}
	for i, h := range hooks {
		if h.Index != i {
			t.Errorf("Index = %d, want %d", h.Index, i)
		}
		if h.Language != hook.LanguageSystem {
			t.Errorf("meta hook language = %q", h.Language)
		}
		if !h.Source.IsMeta() {
			t.Errorf("Source = %+v", h.Source)
		}
	}
}

func TestBuildHooksMinimumVersion(t *testing.T) {
	old := CurrentVersion
	CurrentVersion = "1.2.0"
	t.Cleanup(func() { CurrentVersion = old })

	manifest := []ManifestHook{{
		ID: "new-hook", Name: "n", Entry: "e", Language: "system",
		MinimumVersion: "2.0.0",
	}}
	cfg := &ProjectConfig{Repos: []RepoConfig{{
		Repo: "https://example.com/hooks", Rev: "v1",
		Hooks: []HookOverride{{ID: "new-hook"}},
	}}}
	_, err := BuildHooks(context.Background(), cfg, staticLoader(manifest))
	if err == nil || !strings.Contains(err.Error(), "2.0.0") {
		t.Fatalf("err = %v", err)
	}
}

func TestFilterFiles(t *testing.T) {
	cfg := &ProjectConfig{Files: `\.go$`, Exclude: `^vendor/`}
	got, err := cfg.FilterFiles([]string{"main.go", "readme.md", "vendor/dep.go"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "main.go" {
		t.Errorf("got %v", got)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("PREKIT_WORKERS", "3")
	t.Setenv("PREKIT_CONTAINER_ENGINE", "podman")
	s, err := LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Workers != 3 {
		t.Errorf("Workers = %d", s.Workers)
	}
	if s.ContainerEngine != "podman" {
		t.Errorf("ContainerEngine = %q", s.ContainerEngine)
	}
	if s.InstallWorkers <= 0 {
		t.Error("InstallWorkers must be positive")
	}
	if s.CacheDir == "" {
		t.Error("CacheDir empty")
	}
}
