// SPDX-License-Identifier: MPL-2.0

package language

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

// Python builds virtualenv-backed environments. The hook source (when
// remote) and its additional_dependencies are pip-installed into the
// venv, and hook entries resolve against the venv's bin directory.
type Python struct{}

func (*Python) Language() hook.Language { return hook.LanguagePython }

func (*Python) Install(ctx context.Context, in *InstallContext) error {
	if _, err := runner.RunChecked(ctx, runner.Cmd{
		Name: in.Toolchain.Exe,
		Args: []string{"-m", "venv", "--clear", in.EnvDir},
	}); err != nil {
		return fmt.Errorf("create virtualenv: %w", err)
	}

	venvPython := filepath.Join(binDir(in.EnvDir), "python")

	if targets := pipTargets(in); len(targets) > 0 {
		args := []string{"-m", "pip", "install", "--quiet", "--disable-pip-version-check"}
		args = append(args, targets...)
		if _, err := runner.RunChecked(ctx, runner.Cmd{
			Name: venvPython,
			Args: args,
			Dir:  in.RepoDir,
		}); err != nil {
			return fmt.Errorf("pip install hook dependencies: %w", err)
		}
	}

	if err := relocateBinScripts(in.EnvDir, in.FinalDir); err != nil {
		return fmt.Errorf("relocate virtualenv scripts: %w", err)
	}
	return nil
}

// relocateBinScripts rewrites occurrences of the staging directory in
// the environment's bin scripts to the publish path. venv and pip write
// the absolute environment path into activate scripts and into every
// console-script shebang, and the store renames the directory after
// Install returns; without the rewrite those entry points would fail
// with a missing interpreter.
func relocateBinScripts(stagingDir, finalDir string) error {
	if finalDir == "" || finalDir == stagingDir {
		return nil
	}
	bin := binDir(stagingDir)
	items, err := os.ReadDir(bin)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	oldPath := []byte(stagingDir)
	newPath := []byte(finalDir)
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		path := filepath.Join(bin, item.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !bytes.Contains(data, oldPath) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, bytes.ReplaceAll(data, oldPath, newPath), info.Mode().Perm()); err != nil {
			return err
		}
	}
	return nil
}

// pipTargets lists what to install: the hook repository itself for
// remote hooks, plus any additional dependencies.
func pipTargets(in *InstallContext) []string {
	var targets []string
	if in.Hook.Source.IsRemote() {
		targets = append(targets, ".")
	}
	targets = append(targets, in.Hook.AdditionalDependencies...)
	return targets
}

func (*Python) Healthy(envDir string) bool {
	info, err := os.Stat(filepath.Join(binDir(envDir), "python"))
	return err == nil && !info.IsDir()
}

func (*Python) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	env := map[string]string{
		"VIRTUAL_ENV": rc.EnvDir,
		// A stray PYTHONHOME would point the venv interpreter at the
		// wrong stdlib.
		"PYTHONHOME": "",
	}
	return runWithPath(ctx, rc, []string{binDir(rc.EnvDir)}, env)
}
