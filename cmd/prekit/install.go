// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/gitx"
	"github.com/prekit/prekit/internal/hook"
)

// hookScriptMarker identifies scripts prekit wrote, so install and
// uninstall never touch a hook script someone else owns.
const hookScriptMarker = "# generated by prekit"

var (
	installStages []string

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Install prekit into the repository's git hooks",
		Long: `Write git hook scripts that invoke prekit for the configured stages.
An existing hook script that prekit does not own is preserved as
<name>.legacy and still runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}
			stages, err := installTargets(a)
			if err != nil {
				return err
			}
			hooksDir, err := gitx.HooksDir(ctx, a.root)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(hooksDir, 0o755); err != nil {
				return err
			}
			for _, stage := range stages {
				if err := installHookScript(hooksDir, stage); err != nil {
					return err
				}
				fmt.Printf("prekit installed at %s\n", filepath.Join(hooksDir, string(stage)))
			}
			return nil
		},
	}

	uninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove prekit's git hook scripts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}
			hooksDir, err := gitx.HooksDir(ctx, a.root)
			if err != nil {
				return err
			}
			for _, stage := range hook.AllStages() {
				path := filepath.Join(hooksDir, string(stage))
				if !ownsHookScript(path) {
					continue
				}
				if err := os.Remove(path); err != nil {
					return err
				}
				// Restore a hook we displaced at install time.
				if _, err := os.Stat(path + ".legacy"); err == nil {
					if err := os.Rename(path+".legacy", path); err != nil {
						return err
					}
				}
				fmt.Printf("prekit removed from %s\n", path)
			}
			return nil
		},
	}
)

func init() {
	installCmd.Flags().StringSliceVarP(&installStages, "stage", "t", nil,
		"stages to install hooks for (default: config default_stages, else pre-commit)")
}

// installTargets decides which stages get a script: the flag wins,
// then the project's default_stages, then pre-commit alone.
func installTargets(a *app) ([]hook.Stage, error) {
	raw := installStages
	if len(raw) == 0 {
		raw = a.cfg.DefaultStages
	}
	if len(raw) == 0 {
		return []hook.Stage{hook.StagePreCommit}, nil
	}
	stages := make([]hook.Stage, 0, len(raw))
	for _, s := range raw {
		stage, err := hook.ParseStage(s)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func installHookScript(hooksDir string, stage hook.Stage) error {
	path := filepath.Join(hooksDir, string(stage))
	if _, err := os.Stat(path); err == nil && !ownsHookScript(path) {
		if err := os.Rename(path, path+".legacy"); err != nil {
			return fmt.Errorf("preserve existing %s hook: %w", stage, err)
		}
		fmt.Printf("existing %s hook preserved as %s.legacy\n", stage, path)
	}
	return os.WriteFile(path, []byte(hookScript(stage)), 0o755)
}

// hookScript renders the stage's hook script. The commit-msg family
// forwards git's message-file argument; everything else runs plain.
func hookScript(stage hook.Stage) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env sh\n")
	b.WriteString(hookScriptMarker + "\n")
	b.WriteString("legacy=\"$0.legacy\"\n")
	b.WriteString("if [ -x \"$legacy\" ]; then \"$legacy\" \"$@\" || exit $?; fi\n")
	switch stage {
	case hook.StageCommitMsg, hook.StagePrepareCommitMsg:
		b.WriteString(fmt.Sprintf("exec prekit run --stage %s --commit-msg-filename \"$1\"\n", stage))
	case hook.StagePrePush:
		// git feeds the pushed ref lines on stdin; exec passes the
		// descriptor through unchanged.
		b.WriteString(fmt.Sprintf("exec prekit run --stage %s --hook-stdin\n", stage))
	default:
		b.WriteString(fmt.Sprintf("exec prekit run --stage %s\n", stage))
	}
	return b.String()
}

func ownsHookScript(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), hookScriptMarker)
}
