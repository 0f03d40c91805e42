// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

// Golang builds environments by `go install`-ing the hook source and
// any additional dependencies with GOBIN pointed into the environment.
type Golang struct{}

func (*Golang) Language() hook.Language { return hook.LanguageGolang }

func (*Golang) Install(ctx context.Context, in *InstallContext) error {
	gobin := binDir(in.EnvDir)
	if err := os.MkdirAll(gobin, 0o755); err != nil {
		return err
	}
	env := map[string]string{
		"GOBIN":   gobin,
		"GOFLAGS": "-mod=mod",
	}

	if in.Hook.Source.IsRemote() {
		if _, err := runner.RunChecked(ctx, runner.Cmd{
			Name: in.Toolchain.Exe,
			Args: []string{"install", "./..."},
			Dir:  in.RepoDir,
			Env:  env,
		}); err != nil {
			return fmt.Errorf("go install hook source: %w", err)
		}
	}

	for _, dep := range in.Hook.AdditionalDependencies {
		if !strings.Contains(dep, "@") {
			dep += "@latest"
		}
		if _, err := runner.RunChecked(ctx, runner.Cmd{
			Name: in.Toolchain.Exe,
			Args: []string{"install", dep},
			Env:  env,
		}); err != nil {
			return fmt.Errorf("go install %s: %w", dep, err)
		}
	}
	return nil
}

func (*Golang) Healthy(envDir string) bool {
	info, err := os.Stat(binDir(envDir))
	return err == nil && info.IsDir()
}

func (*Golang) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	paths := []string{binDir(rc.EnvDir)}
	if rc.Toolchain != nil {
		paths = append(paths, filepath.Dir(rc.Toolchain.Exe))
	}
	return runWithPath(ctx, rc, paths, nil)
}
