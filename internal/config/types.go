// SPDX-License-Identifier: MPL-2.0

package config

type (
	// ProjectConfig is the parsed .prekit.yaml at a repository root.
	ProjectConfig struct {
		Repos []RepoConfig `yaml:"repos"`

		// Files and Exclude are project-wide filters layered over every
		// hook's own patterns.
		Files   string `yaml:"files,omitempty"`
		Exclude string `yaml:"exclude,omitempty"`

		FailFast      bool     `yaml:"fail_fast,omitempty"`
		DefaultStages []string `yaml:"default_stages,omitempty"`
	}

	// RepoConfig selects hooks from one source: a clonable repository
	// pinned to a revision, or the "local"/"meta" sentinels.
	RepoConfig struct {
		Repo  string         `yaml:"repo"`
		Rev   string         `yaml:"rev,omitempty"`
		Hooks []HookOverride `yaml:"hooks"`
	}

	// HookOverride is a hook reference plus project-level overrides.
	// For local hooks it is the whole definition. Optional booleans are
	// pointers so "absent" and "false" stay distinct during merging.
	HookOverride struct {
		ID                     string   `yaml:"id"`
		Name                   string   `yaml:"name,omitempty"`
		Alias                  string   `yaml:"alias,omitempty"`
		Entry                  string   `yaml:"entry,omitempty"`
		Language               string   `yaml:"language,omitempty"`
		Args                   []string `yaml:"args,omitempty"`
		AdditionalDependencies []string `yaml:"additional_dependencies,omitempty"`
		LanguageVersion        string   `yaml:"language_version,omitempty"`
		Files                  string   `yaml:"files,omitempty"`
		Exclude                string   `yaml:"exclude,omitempty"`
		Types                  []string `yaml:"types,omitempty"`
		TypesOr                []string `yaml:"types_or,omitempty"`
		ExcludeTypes           []string `yaml:"exclude_types,omitempty"`
		Stages                 []string `yaml:"stages,omitempty"`
		AlwaysRun              *bool    `yaml:"always_run,omitempty"`
		FailFast               *bool    `yaml:"fail_fast,omitempty"`
		PassFilenames          *bool    `yaml:"pass_filenames,omitempty"`
		RequireSerial          *bool    `yaml:"require_serial,omitempty"`
		Verbose                *bool    `yaml:"verbose,omitempty"`
		LogFile                string   `yaml:"log_file,omitempty"`
	}

	// ManifestHook is a hook definition as declared by a hook
	// repository's manifest. It carries the defaults a project's
	// override is merged onto.
	ManifestHook struct {
		ID                     string   `yaml:"id"`
		Name                   string   `yaml:"name"`
		Entry                  string   `yaml:"entry"`
		Language               string   `yaml:"language"`
		Args                   []string `yaml:"args,omitempty"`
		AdditionalDependencies []string `yaml:"additional_dependencies,omitempty"`
		LanguageVersion        string   `yaml:"language_version,omitempty"`
		Files                  string   `yaml:"files,omitempty"`
		Exclude                string   `yaml:"exclude,omitempty"`
		Types                  []string `yaml:"types,omitempty"`
		TypesOr                []string `yaml:"types_or,omitempty"`
		ExcludeTypes           []string `yaml:"exclude_types,omitempty"`
		Stages                 []string `yaml:"stages,omitempty"`
		AlwaysRun              bool     `yaml:"always_run,omitempty"`
		FailFast               bool     `yaml:"fail_fast,omitempty"`
		PassFilenames          *bool    `yaml:"pass_filenames,omitempty"`
		RequireSerial          bool     `yaml:"require_serial,omitempty"`
		MinimumVersion         string   `yaml:"minimum_prekit_version,omitempty"`
	}
)
