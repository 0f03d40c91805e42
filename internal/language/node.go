// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

// Node builds npm-prefix environments: packages are installed globally
// under the environment directory, and hook entries resolve against its
// bin directory.
type Node struct{}

func (*Node) Language() hook.Language { return hook.LanguageNode }

func (*Node) Install(ctx context.Context, in *InstallContext) error {
	npm, err := findNpm(in.Toolchain.Exe)
	if err != nil {
		return err
	}

	targets := make([]string, 0, len(in.Hook.AdditionalDependencies)+1)
	if in.Hook.Source.IsRemote() {
		targets = append(targets, in.RepoDir)
	}
	targets = append(targets, in.Hook.AdditionalDependencies...)
	if len(targets) == 0 {
		// Nothing to install; the environment is just a bin dir that
		// keeps lookups and the install marker in one place.
		return os.MkdirAll(binDir(in.EnvDir), 0o755)
	}

	args := append([]string{"install", "--global", "--no-audit", "--no-fund"}, targets...)
	if _, err := runner.RunChecked(ctx, runner.Cmd{
		Name: npm,
		Args: args,
		Env: map[string]string{
			"npm_config_prefix":          in.EnvDir,
			"npm_config_update_notifier": "false",
		},
		// npm must run the same node the environment was keyed on.
		PrependPath: []string{filepath.Dir(in.Toolchain.Exe)},
	}); err != nil {
		return fmt.Errorf("npm install hook dependencies: %w", err)
	}
	return nil
}

// findNpm locates npm next to the toolchain's node, falling back to
// PATH for system installs that split the two.
func findNpm(nodeExe string) (string, error) {
	beside := filepath.Join(filepath.Dir(nodeExe), "npm")
	if info, err := os.Stat(beside); err == nil && !info.IsDir() {
		return beside, nil
	}
	npm, err := exec.LookPath("npm")
	if err != nil {
		return "", fmt.Errorf("npm not found next to %s or on PATH: %w", nodeExe, err)
	}
	return npm, nil
}

func (*Node) Healthy(envDir string) bool {
	info, err := os.Stat(binDir(envDir))
	return err == nil && info.IsDir()
}

func (*Node) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	paths := []string{binDir(rc.EnvDir)}
	if rc.Toolchain != nil {
		paths = append(paths, filepath.Dir(rc.Toolchain.Exe))
	}
	env := map[string]string{
		"NODE_PATH": filepath.Join(rc.EnvDir, "lib", "node_modules"),
	}
	return runWithPath(ctx, rc, paths, env)
}
