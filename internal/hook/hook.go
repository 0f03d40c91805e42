// SPDX-License-Identifier: MPL-2.0

// Package hook defines the resolved hook model: one configured check or
// fixer bound to a language, a source, an entry command and file filters,
// plus the environment identity used to share installs across hooks.
package hook

import (
	"fmt"
	"slices"
	"strings"
)

// Language tags for the supported runtime families.
const (
	LanguagePython      Language = "python"
	LanguageNode        Language = "node"
	LanguageGolang      Language = "golang"
	LanguageDocker      Language = "docker"
	LanguageDockerImage Language = "docker_image"
	LanguageSystem      Language = "system"
	LanguageScript      Language = "script"
	LanguagePygrep      Language = "pygrep"
	LanguageFail        Language = "fail"
)

// Git stages a hook can be bound to.
const (
	StagePreCommit        Stage = "pre-commit"
	StagePreMergeCommit   Stage = "pre-merge-commit"
	StagePrePush          Stage = "pre-push"
	StagePreRebase        Stage = "pre-rebase"
	StageCommitMsg        Stage = "commit-msg"
	StagePrepareCommitMsg Stage = "prepare-commit-msg"
	StagePostCheckout     Stage = "post-checkout"
	StagePostCommit       Stage = "post-commit"
	StagePostMerge        Stage = "post-merge"
	StagePostRewrite      Stage = "post-rewrite"
	StageManual           Stage = "manual"
)

type (
	// Language identifies a runtime family. The set is closed: the
	// adapter registry maps each tag to exactly one implementation.
	Language string

	// Stage identifies a git hook stage.
	Stage string

	// Source identifies where a hook's definition (and, for remote
	// sources, its code) comes from. Immutable once resolved.
	Source struct {
		// Repo is a clonable location, or the "local"/"meta" sentinels.
		Repo string
		// Rev is the revision to check out for remote sources.
		Rev string
	}

	// Hook is a fully resolved unit of work, produced by merging a
	// manifest-declared hook with project overrides and defaults.
	// Immutable after resolution; multiple hooks may share one
	// environment.
	Hook struct {
		// Index is the declaration position in the project config.
		// Reporting order follows it regardless of completion order.
		Index int

		ID       string
		Name     string
		Alias    string
		Entry    string
		Language Language
		Args     []string

		// AdditionalDependencies extends the environment beyond the
		// source's own requirements. Part of the environment identity.
		AdditionalDependencies []string

		// LanguageVersion is the raw version request ("", "3.11", ">=18").
		LanguageVersion string

		// Files and Exclude are regular expressions over repo-relative
		// paths. Types/TypesOr/ExcludeTypes filter on classification tags.
		Files        string
		Exclude      string
		Types        []string
		TypesOr      []string
		ExcludeTypes []string

		Stages        []Stage
		AlwaysRun     bool
		FailFast      bool
		PassFilenames bool
		RequireSerial bool
		Verbose       bool
		LogFile       string

		Source Source
	}
)

// Local and meta source sentinels.
const (
	SourceLocal = "local"
	SourceMeta  = "meta"
)

// IsRemote reports whether the source needs a clone.
func (s Source) IsRemote() bool {
	return s.Repo != SourceLocal && s.Repo != SourceMeta
}

// IsLocal reports whether the hook is defined in the project itself.
func (s Source) IsLocal() bool { return s.Repo == SourceLocal }

// IsMeta reports whether the hook is one of the self-check hooks.
func (s Source) IsMeta() bool { return s.Repo == SourceMeta }

func (s Source) String() string {
	if !s.IsRemote() {
		return s.Repo
	}
	return s.Repo + "@" + s.Rev
}

// Valid reports whether the language tag is one of the supported set.
func (l Language) Valid() bool {
	switch l {
	case LanguagePython, LanguageNode, LanguageGolang, LanguageDocker,
		LanguageDockerImage, LanguageSystem, LanguageScript,
		LanguagePygrep, LanguageFail:
		return true
	}
	return false
}

// SupportsEnvironment reports whether the language materializes an
// isolated dependency set on disk. System-ish pseudo-languages run in
// place and never install.
func (l Language) SupportsEnvironment() bool {
	switch l {
	case LanguagePython, LanguageNode, LanguageGolang, LanguageDocker:
		return true
	}
	return false
}

// ParseStage validates a stage name from configuration.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	switch stage {
	case StagePreCommit, StagePreMergeCommit, StagePrePush, StagePreRebase,
		StageCommitMsg, StagePrepareCommitMsg, StagePostCheckout,
		StagePostCommit, StagePostMerge, StagePostRewrite, StageManual:
		return stage, nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// AllStages is the default stage set for hooks that declare none.
func AllStages() []Stage {
	return []Stage{
		StagePreCommit, StagePreMergeCommit, StagePrePush, StagePreRebase,
		StageCommitMsg, StagePrepareCommitMsg, StagePostCheckout,
		StagePostCommit, StagePostMerge, StagePostRewrite, StageManual,
	}
}

// String returns the hook identifier for logs and reporting.
func (h *Hook) String() string { return h.ID }

// DisplayName is the human label used in the status column.
func (h *Hook) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.ID
}

// HasStage reports whether the hook participates in the given stage.
// A hook with no declared stages participates in all of them.
func (h *Hook) HasStage(stage Stage) bool {
	return len(h.Stages) == 0 || slices.Contains(h.Stages, stage)
}

// Dependencies returns the full dependency set that defines the hook's
// environment. For remote hooks the source itself is an implicit
// dependency: two hooks from different repositories never share an
// environment even when their declared dependencies coincide.
func (h *Hook) Dependencies() []string {
	deps := make([]string, 0, len(h.AdditionalDependencies)+1)
	if h.Source.IsRemote() {
		deps = append(deps, h.Source.String())
	}
	deps = append(deps, h.AdditionalDependencies...)
	slices.Sort(deps)
	return slices.Compact(deps)
}

// Matches reports whether the hook id or alias equals the given selector.
func (h *Hook) Matches(selector string) bool {
	return h.ID == selector || (h.Alias != "" && h.Alias == selector)
}

// Summary renders a one-line description for verbose listings.
func (h *Hook) Summary() string {
	var b strings.Builder
	b.WriteString(h.ID)
	b.WriteString(" (")
	b.WriteString(string(h.Language))
	if h.LanguageVersion != "" {
		b.WriteString("@")
		b.WriteString(h.LanguageVersion)
	}
	b.WriteString(", ")
	b.WriteString(h.Source.String())
	b.WriteString(")")
	return b.String()
}
