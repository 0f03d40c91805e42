// SPDX-License-Identifier: MPL-2.0

// Package language implements the per-language adapters that build hook
// environments and execute hook entries. Adapters are registered in a
// Registry keyed by language, mirroring how hooks declare themselves.
package language

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"mvdan.cc/sh/v3/shell"

	"github.com/prekit/prekit/internal/container"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
	"github.com/prekit/prekit/internal/toolchain"
)

type (
	// InstallContext carries everything an adapter needs to materialize
	// an environment. EnvDir is a staging directory owned by the store;
	// it becomes visible to other processes only after Install succeeds.
	InstallContext struct {
		EnvDir string
		// FinalDir is where the environment will live once the store
		// renames it into place. Adapters that bake absolute paths into
		// the environment (pip writes EnvDir into console-script
		// shebangs) must fix them up to FinalDir before returning, or
		// the published entry points at a path that no longer exists.
		FinalDir string
		// EnvID is the environment's stable identifier, used where an
		// external artifact (a container image) must be tagged with it.
		EnvID     string
		Toolchain *toolchain.Toolchain
		// RepoDir is the checked-out hook source, or the project root
		// for local hooks.
		RepoDir string
		Hook    *hook.Hook
	}

	// RunContext carries one hook invocation over one batch of files.
	RunContext struct {
		Hook *hook.Hook
		// EnvDir is empty for languages without environments.
		EnvDir    string
		Toolchain *toolchain.Toolchain
		RepoDir   string
		// WorkDir is the project root; hook processes run there.
		WorkDir string
		// Files is this batch. Appended to the command line only when
		// the hook takes filenames.
		Files []string
	}

	// Adapter is one language's environment and execution strategy.
	Adapter interface {
		Language() hook.Language
		// Install builds the environment into in.EnvDir. Called at most
		// once per environment key across concurrent hooks.
		Install(ctx context.Context, in *InstallContext) error
		// Healthy reports whether a previously installed environment is
		// still usable. A false return forces a rebuild.
		Healthy(envDir string) bool
		// Run executes the hook. A non-nil Output with a non-zero exit
		// code is a hook failure, not an error; errors mean the hook
		// could not be run at all.
		Run(ctx context.Context, rc *RunContext) (*runner.Output, error)
	}

	// Registry holds the known adapters.
	Registry struct {
		adapters map[hook.Language]Adapter
	}

	// UnsupportedError reports a hook language with no adapter.
	UnsupportedError struct {
		Language hook.Language
	}
)

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("language %q is not supported", e.Language)
}

// NewRegistry returns a registry with every built-in adapter. The
// engine preference decides whether docker or podman is tried first
// for the container-backed languages.
func NewRegistry(preferred container.EngineType) *Registry {
	r := &Registry{adapters: make(map[hook.Language]Adapter)}
	for _, a := range []Adapter{
		&Python{},
		&Node{},
		&Golang{},
		NewDocker(preferred),
		NewDockerImage(preferred),
		&System{},
		&Script{},
		&Pygrep{},
		&Fail{},
	} {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Language()] = a
}

// Get returns the adapter for a language.
func (r *Registry) Get(lang hook.Language) (Adapter, error) {
	a, ok := r.adapters[lang]
	if !ok {
		return nil, &UnsupportedError{Language: lang}
	}
	return a, nil
}

// splitEntry breaks a hook entry into argv words with shell quoting
// rules, without variable expansion.
func splitEntry(entry string) ([]string, error) {
	fields, err := shell.Fields(entry, func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("parse hook entry %q: %w", entry, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("hook entry %q is empty", entry)
	}
	return fields, nil
}

// binDir returns the executables directory inside an environment.
func binDir(envDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envDir, "Scripts")
	}
	return filepath.Join(envDir, "bin")
}

// hookCommand assembles the common argv shape: entry words, then the
// hook's fixed args, then the batch of files when the hook takes them.
func hookCommand(rc *RunContext) ([]string, error) {
	argv, err := splitEntry(rc.Hook.Entry)
	if err != nil {
		return nil, err
	}
	argv = append(argv, rc.Hook.Args...)
	if rc.Hook.PassFilenames {
		argv = append(argv, rc.Files...)
	}
	return argv, nil
}

// runWithPath executes the hook command with extra directories
// prepended to PATH, inside the project root.
func runWithPath(ctx context.Context, rc *RunContext, extraPath []string, env map[string]string) (*runner.Output, error) {
	argv, err := hookCommand(rc)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, runner.Cmd{
		Name:        argv[0],
		Args:        argv[1:],
		Dir:         rc.WorkDir,
		Env:         env,
		PrependPath: extraPath,
	})
}
