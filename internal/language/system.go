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

// System runs hook entries against whatever is already installed on the
// machine. No environment is built.
type System struct{}

func (*System) Language() hook.Language { return hook.LanguageSystem }

func (*System) Install(context.Context, *InstallContext) error { return nil }

func (*System) Healthy(string) bool { return true }

func (*System) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	argv, err := hookCommand(rc)
	if err != nil {
		return nil, err
	}
	// Entries invoking prekit itself (the builtin hooks) must work
	// even when the running binary is not on PATH.
	if argv[0] == "prekit" {
		if exe, err := os.Executable(); err == nil {
			argv[0] = exe
		}
	}
	return runner.Run(ctx, runner.Cmd{
		Name: argv[0],
		Args: argv[1:],
		Dir:  rc.WorkDir,
	})
}

// Script runs an executable shipped inside the hook repository, with
// the entry's first word resolved relative to the repository root.
type Script struct{}

func (*Script) Language() hook.Language { return hook.LanguageScript }

func (*Script) Install(context.Context, *InstallContext) error { return nil }

func (*Script) Healthy(string) bool { return true }

func (*Script) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	argv, err := hookCommand(rc)
	if err != nil {
		return nil, err
	}
	script := argv[0]
	if !filepath.IsAbs(script) {
		script = filepath.Join(rc.RepoDir, script)
	}
	return runner.Run(ctx, runner.Cmd{
		Name: script,
		Args: argv[1:],
		Dir:  rc.WorkDir,
	})
}

// Fail always fails, printing its entry and the offending files. Used
// to block files matching a pattern from being committed at all.
type Fail struct{}

func (*Fail) Language() hook.Language { return hook.LanguageFail }

func (*Fail) Install(context.Context, *InstallContext) error { return nil }

func (*Fail) Healthy(string) bool { return true }

func (*Fail) Run(_ context.Context, rc *RunContext) (*runner.Output, error) {
	var b strings.Builder
	b.WriteString(rc.Hook.Entry)
	b.WriteString("\n\n")
	for _, f := range rc.Files {
		fmt.Fprintf(&b, "%s\n", f)
	}
	return &runner.Output{ExitCode: 1, Combined: []byte(b.String())}, nil
}
