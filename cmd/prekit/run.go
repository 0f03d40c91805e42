// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/container"
	"github.com/prekit/prekit/internal/engine"
	"github.com/prekit/prekit/internal/gitx"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/issue"
	"github.com/prekit/prekit/internal/toolchain"
)

var (
	runStage          string
	runAllFiles       bool
	runFiles          []string
	runCommitMsgFile  string
	runFromRef        string
	runToRef          string
	runHookStdin      bool
	runFailFast       bool
	runJobs           int
	runShowAllOutputs bool

	runCmd = &cobra.Command{
		Use:   "run [hook-id...]",
		Short: "Run hooks against changed files",
		Long: `Run the configured hooks. With no arguments every hook bound to the
stage runs; with hook ids only those run. The candidate file set is
the staged files by default, every tracked file with --all-files, or
an explicit list with --files.

Hooks can be skipped ad hoc through the SKIP environment variable:
  SKIP=flake8,mypy prekit run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHooks(cmd, args)
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&runStage, "stage", "s", string(hook.StagePreCommit), "git stage to run hooks for")
	runCmd.Flags().BoolVarP(&runAllFiles, "all-files", "a", false, "run against all tracked files")
	runCmd.Flags().StringSliceVar(&runFiles, "files", nil, "run against an explicit file list")
	runCmd.Flags().StringVar(&runCommitMsgFile, "commit-msg-filename", "", "commit message file, passed by the commit-msg stage hook")
	runCmd.Flags().StringVar(&runFromRef, "from-ref", "", "run against files changed between this ref and --to-ref")
	runCmd.Flags().StringVar(&runToRef, "to-ref", "", "run against files changed between --from-ref and this ref")
	runCmd.Flags().BoolVar(&runHookStdin, "hook-stdin", false, "read pushed ref lines from stdin, as git feeds a pre-push hook")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "stop after the first failing hook")
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", 0, "max concurrent hook invocations (default: CPU count)")
	runCmd.Flags().BoolVar(&runShowAllOutputs, "show-output", false, "print output of passing hooks too")
	_ = runCmd.Flags().MarkHidden("commit-msg-filename")
	_ = runCmd.Flags().MarkHidden("hook-stdin")
}

func runHooks(cmd *cobra.Command, selectors []string) error {
	ctx := cmd.Context()

	stage, err := hook.ParseStage(runStage)
	if err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	hooks, err := a.hooks(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}
	if len(selectors) > 0 {
		hooks = selectHooks(hooks, selectors)
		if len(hooks) == 0 {
			return fmt.Errorf("no configured hook matches %v", selectors)
		}
	}

	files, err := candidateFiles(ctx, a, stage)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}
	files, err = a.cfg.FilterFiles(files)
	if err != nil {
		return err
	}

	workers := a.settings.Workers
	if runJobs > 0 {
		workers = runJobs
	}
	outcomes, err := a.engine().Run(ctx, hooks, engine.Options{
		Stage:          stage,
		Files:          files,
		Workers:        workers,
		InstallWorkers: a.settings.InstallWorkers,
		FailFast:       runFailFast || a.cfg.FailFast,
		Skip:           skipList(),
	})
	if err != nil {
		return err
	}

	failed := false
	for i := range outcomes {
		printOutcome(&outcomes[i])
		switch outcomes[i].Status {
		case engine.StatusFailed, engine.StatusUnsupported:
			failed = true
		case engine.StatusPassedModified:
			// A hook that rewrites files leaves the index stale, so the
			// commit in flight must not proceed.
			failed = true
		}
	}
	renderRunIssues(outcomes)
	if failed {
		return &ExitError{Code: 1}
	}
	return nil
}

// renderRunIssues prints the diagnostic card for failure classes that
// have a known remedy, once per run regardless of how many hooks hit
// them.
func renderRunIssues(outcomes []engine.Outcome) {
	var (
		noEngine     *container.NotAvailableError
		unresolvable *toolchain.UnresolvableError
		modified     bool
	)
	for i := range outcomes {
		if outcomes[i].Status == engine.StatusPassedModified {
			modified = true
		}
		if outcomes[i].Err == nil {
			continue
		}
		errors.As(outcomes[i].Err, &noEngine)
		errors.As(outcomes[i].Err, &unresolvable)
	}

	if noEngine != nil {
		printIssue(issue.ContainerEngineNotFoundId)
	}
	if unresolvable != nil {
		printIssue(issue.ToolchainUnresolvableId)
	}
	if modified {
		printIssue(issue.HookModifiedFilesId)
	}
}

func printIssue(id issue.Id) {
	if rendered, err := issue.Get(id).Render("dark"); err == nil {
		fmt.Print(rendered)
	}
}

// candidateFiles picks the file universe for this invocation.
func candidateFiles(ctx context.Context, a *app, stage hook.Stage) ([]string, error) {
	switch {
	case len(runFiles) > 0:
		return runFiles, nil
	case runAllFiles:
		return gitx.AllFiles(ctx, a.root)
	case runFromRef != "" && runToRef != "":
		return gitx.ChangedFiles(ctx, a.root, runFromRef, runToRef)
	case runCommitMsgFile != "" &&
		(stage == hook.StageCommitMsg || stage == hook.StagePrepareCommitMsg):
		return []string{runCommitMsgFile}, nil
	case runHookStdin && stage == hook.StagePrePush:
		return prePushFiles(ctx, a, os.Stdin)
	}

	unmerged, err := gitx.HasUnmergedPaths(ctx, a.root)
	if err != nil {
		return nil, err
	}
	if unmerged {
		return nil, issue.NewErrorContext().
			WithOperation("collect staged files").
			WithResource(a.root).
			WithSuggestion("Resolve the merge conflicts and 'git add' the results").
			Wrap(fmt.Errorf("repository has unmerged paths")).
			BuildError()
	}
	return gitx.StagedFiles(ctx, a.root)
}

// pushRef is one line of the ref listing git writes to a pre-push
// hook's stdin.
type pushRef struct {
	LocalSHA  string
	RemoteSHA string
	// NewRef marks a push creating the remote ref, so there is no
	// remote commit to diff against.
	NewRef bool
}

// parsePushRefs reads "<local ref> <local sha> <remote ref> <remote sha>"
// lines. Deletions push no content and are dropped.
func parsePushRefs(r io.Reader) ([]pushRef, error) {
	var refs []pushRef
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			continue
		}
		localSHA, remoteSHA := fields[1], fields[3]
		if isZeroSHA(localSHA) {
			continue
		}
		refs = append(refs, pushRef{
			LocalSHA:  localSHA,
			RemoteSHA: remoteSHA,
			NewRef:    isZeroSHA(remoteSHA),
		})
	}
	return refs, sc.Err()
}

func isZeroSHA(sha string) bool {
	return sha != "" && strings.Trim(sha, "0") == ""
}

// prePushFiles unions the files changed on every pushed ref. A ref
// with no remote counterpart falls back to every tracked file.
func prePushFiles(ctx context.Context, a *app, r io.Reader) ([]string, error) {
	refs, err := parsePushRefs(r)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var files []string
	for _, ref := range refs {
		var batch []string
		if ref.NewRef {
			batch, err = gitx.AllFiles(ctx, a.root)
		} else {
			batch, err = gitx.ChangedFiles(ctx, a.root, ref.RemoteSHA, ref.LocalSHA)
		}
		if err != nil {
			return nil, err
		}
		for _, f := range batch {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

func selectHooks(hooks []*hook.Hook, selectors []string) []*hook.Hook {
	var picked []*hook.Hook
	for _, h := range hooks {
		for _, sel := range selectors {
			if h.Matches(sel) {
				picked = append(picked, h)
				break
			}
		}
	}
	return picked
}

func skipList() []string {
	var skip []string
	for _, part := range strings.Split(os.Getenv("SKIP"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			skip = append(skip, part)
		}
	}
	return skip
}

// printOutcome writes one status line, then the captured output when
// it matters: always on failure, on request otherwise.
func printOutcome(o *engine.Outcome) {
	const width = 60
	name := o.Hook.DisplayName()
	dots := width - len(name)
	if dots < 3 {
		dots = 3
	}
	fmt.Printf("%s%s%s\n", name, strings.Repeat(".", dots), statusWord(o))

	showOutput := false
	switch o.Status {
	case engine.StatusFailed, engine.StatusPassedModified:
		showOutput = true
	default:
		showOutput = o.Hook.Verbose || runShowAllOutputs || verbose
	}
	if o.Err != nil {
		fmt.Println(formatErrorForDisplay(o.Err, verbose))
	}
	if showOutput && len(o.Output) > 0 {
		fmt.Println(strings.TrimRight(string(o.Output), "\n"))
	}
}

func statusWord(o *engine.Outcome) string {
	switch o.Status {
	case engine.StatusPassed:
		return SuccessStyle.Render("Passed")
	case engine.StatusPassedModified:
		return WarningStyle.Render("Modified")
	case engine.StatusFailed:
		return ErrorStyle.Render("Failed")
	case engine.StatusSkipped:
		if o.Reason != "" {
			return SkipStyle.Render("Skipped (" + o.Reason + ")")
		}
		return SkipStyle.Render("Skipped")
	case engine.StatusUnsupported:
		return WarningStyle.Render("Unsupported")
	}
	return string(o.Status)
}
