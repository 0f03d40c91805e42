// SPDX-License-Identifier: MPL-2.0

// Package engine drives hook execution: it partitions hooks by
// environment identity, installs environments with bounded parallelism,
// runs each hook over batched file lists, and reports outcomes in
// declaration order no matter what finished first.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/prekit/prekit/internal/gitx"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/language"
	"github.com/prekit/prekit/internal/runner"
	"github.com/prekit/prekit/internal/store"
	"github.com/prekit/prekit/internal/toolchain"
)

// Final hook statuses.
const (
	StatusPassed Status = "passed"
	// StatusPassedModified means every invocation exited zero but the
	// hook rewrote at least one of its files. Callers decide whether
	// that counts as failure for the invocation.
	StatusPassedModified Status = "passed-modified"
	StatusFailed         Status = "failed"
	StatusSkipped        Status = "skipped"
	StatusUnsupported    Status = "unsupported"
)

type (
	// Status is a hook's final state.
	Status string

	// Outcome is one hook's result. Outcomes are returned in hook
	// declaration order.
	Outcome struct {
		Hook     *hook.Hook
		Status   Status
		Duration time.Duration
		// Output is the captured combined output, concatenated across
		// batches in batch order.
		Output []byte
		// Modified reports whether the hook changed any of its matched
		// files, independent of exit status.
		Modified bool
		// Reason is a human-readable explanation for Skipped and
		// Unsupported states.
		Reason string
		// Err is set when the hook could not be run at all (install
		// failure, unresolvable toolchain, spawn failure).
		Err error
	}

	// Options configure one engine run.
	Options struct {
		// Stage filters hooks to those bound to it. Empty runs all.
		Stage hook.Stage
		// Files is the ordered candidate file list, repo-relative.
		Files []string
		// Workers bounds run concurrency; InstallWorkers bounds install
		// concurrency independently. Zero means GOMAXPROCS.
		Workers        int
		InstallWorkers int
		// FailFast stops issuing new hooks after the first failure and
		// forces serial execution so "first" is well defined.
		FailFast bool
		// Skip lists hook IDs or aliases to skip, typically from the
		// SKIP environment variable.
		Skip []string
	}

	// Engine wires the store, toolchain manager and language registry
	// together. One Engine serves one project worktree.
	Engine struct {
		store      *store.Store
		toolchains *toolchain.Manager
		languages  *language.Registry
		workDir    string
	}

	// prep is what the install phase hands the run phase, per hook.
	prep struct {
		envDir  string
		repoDir string
		tc      *toolchain.Toolchain
		err     error
	}
)

// New creates an Engine rooted at the project directory.
func New(st *store.Store, tm *toolchain.Manager, reg *language.Registry, workDir string) *Engine {
	return &Engine{store: st, toolchains: tm, languages: reg, workDir: workDir}
}

// Run executes hooks against the candidate files and returns outcomes
// in declaration order. A hook failing is reported through its Outcome,
// not through the returned error; the error covers cancellation and
// invariant violations only.
func (e *Engine) Run(ctx context.Context, hooks []*hook.Hook, opts Options) ([]Outcome, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.InstallWorkers <= 0 {
		opts.InstallWorkers = opts.Workers
	}

	outcomes := make([]Outcome, len(hooks))
	matched := make([][]string, len(hooks))
	pending := make([]bool, len(hooks))

	// Phase 1: filtering. Serial; classification tags are memoized
	// across hooks.
	cls := newClassifier(e.workDir)
	for i, h := range hooks {
		outcomes[i].Hook = h
		switch {
		case opts.Stage != "" && !h.HasStage(opts.Stage):
			outcomes[i].Status = StatusSkipped
			outcomes[i].Reason = fmt.Sprintf("not bound to stage %s", opts.Stage)
		case matchesAny(h, opts.Skip):
			outcomes[i].Status = StatusSkipped
			outcomes[i].Reason = "skipped by request"
		default:
			if _, err := e.languages.Get(h.Language); err != nil {
				outcomes[i].Status = StatusUnsupported
				outcomes[i].Reason = err.Error()
				continue
			}
			files, err := matchFiles(h, opts.Files, cls)
			if err != nil {
				outcomes[i].Status = StatusFailed
				outcomes[i].Err = err
				continue
			}
			if len(files) == 0 && !h.AlwaysRun {
				outcomes[i].Status = StatusSkipped
				outcomes[i].Reason = "no files to check"
				continue
			}
			matched[i] = files
			pending[i] = true
		}
	}

	// Phase 2: group by environment identity and install in parallel
	// across groups.
	var pendingHooks []*hook.Hook
	indexOf := make(map[*hook.Hook]int)
	for i, h := range hooks {
		if pending[i] {
			pendingHooks = append(pendingHooks, h)
			indexOf[h] = i
		}
	}
	groups := groupHooks(pendingHooks)

	preps := make([]prep, len(hooks))
	ig, igctx := errgroup.WithContext(ctx)
	ig.SetLimit(opts.InstallWorkers)
	for _, g := range groups {
		ig.Go(func() error {
			e.prepareGroup(igctx, g, pendingHooks, indexOf, preps)
			return igctx.Err()
		})
	}
	if err := ig.Wait(); err != nil {
		return outcomes, err
	}

	// Phase 3: run. Parallel across hooks and batches, bounded by one
	// shared semaphore; FailFast degrades to serial execution so the
	// first failure is the declaration-order first.
	serial := opts.FailFast
	for i := range hooks {
		if pending[i] && hooks[i].FailFast {
			serial = true
		}
	}

	sem := semaphore.NewWeighted(int64(opts.Workers))
	stopped := false
	rg, rgctx := errgroup.WithContext(ctx)
	if serial {
		rg.SetLimit(1)
	}
	for i := range hooks {
		if !pending[i] {
			continue
		}
		rg.Go(func() error {
			if rgctx.Err() != nil {
				return rgctx.Err()
			}
			if serial && stopped {
				outcomes[i].Status = StatusSkipped
				outcomes[i].Reason = "fail-fast"
				return nil
			}
			if preps[i].err != nil {
				outcomes[i].Status = StatusFailed
				outcomes[i].Err = preps[i].err
				if serial && (opts.FailFast || hooks[i].FailFast) {
					stopped = true
				}
				return nil
			}
			e.runHook(rgctx, hooks[i], matched[i], preps[i], sem, opts.Workers, &outcomes[i])
			// A hook that rewrote files counts as failing for fail-fast,
			// same as a non-zero exit.
			failed := outcomes[i].Status == StatusFailed || outcomes[i].Status == StatusPassedModified
			if serial && failed && (opts.FailFast || hooks[i].FailFast) {
				stopped = true
			}
			return nil
		})
	}
	if err := rg.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

// prepareGroup clones the group's source if needed, resolves its
// toolchain, and acquires its environment from the store. Failures are
// recorded on every hook in the group; unrelated groups proceed.
func (e *Engine) prepareGroup(ctx context.Context, g Group, pendingHooks []*hook.Hook, indexOf map[*hook.Hook]int, preps []prep) {
	fail := func(err error) {
		for _, pi := range g.Hooks {
			preps[indexOf[pendingHooks[pi]]].err = err
		}
	}

	h := pendingHooks[g.Hooks[0]]
	repoDir := e.workDir
	if h.Source.IsRemote() {
		dir, err := e.store.Acquire(ctx, store.AcquireOptions{
			Area: store.AreaRepos,
			Key:  h.Source.String(),
			Build: func(ctx context.Context, dir string) error {
				return gitx.Clone(ctx, h.Source.Repo, h.Source.Rev, dir)
			},
		})
		if err != nil {
			fail(fmt.Errorf("clone %s: %w", h.Source, err))
			return
		}
		repoDir = dir
	}

	var (
		tc  *toolchain.Toolchain
		err error
	)
	if hasToolchain(h.Language) {
		req, parseErr := hook.ParseVersionRequest(h.LanguageVersion)
		if parseErr != nil {
			fail(parseErr)
			return
		}
		tc, err = e.toolchains.Resolve(ctx, h.Language, req)
		if err != nil {
			fail(err)
			return
		}
	}

	envDir := ""
	if g.NeedsEnv {
		adapter, _ := e.languages.Get(h.Language)
		version := "default"
		tcExe := ""
		if tc != nil {
			version = tc.Version
			tcExe = tc.Exe
		}
		key := hook.NewEnvironmentKey(h.Language, version, h.Dependencies())
		envID := key.ID()
		// The store publishes the staged build under this path;
		// installers that embed absolute paths need to know it up front.
		finalEnvDir := e.store.Path(store.AreaEnvs, envID)
		envDir, err = e.store.Acquire(ctx, store.AcquireOptions{
			Area: store.AreaEnvs,
			Key:  envID,
			Build: func(ctx context.Context, dir string) error {
				if err := adapter.Install(ctx, &language.InstallContext{
					EnvDir:    dir,
					FinalDir:  finalEnvDir,
					EnvID:     envID,
					Toolchain: tc,
					RepoDir:   repoDir,
					Hook:      h,
				}); err != nil {
					return err
				}
				return store.WriteMarker(dir, store.InstallMarker{
					Language:     string(h.Language),
					Version:      version,
					Dependencies: h.Dependencies(),
					Toolchain:    tcExe,
					CreatedAt:    time.Now().UTC(),
				})
			},
			Validate: func(dir string) bool {
				return store.HasMarker(dir) && adapter.Healthy(dir)
			},
		})
		if err != nil {
			fail(fmt.Errorf("install environment for %s: %w", h.DisplayName(), err))
			return
		}
		slog.Debug("environment ready", "hook", h.ID, "env", envID)
	}

	for _, pi := range g.Hooks {
		preps[indexOf[pendingHooks[pi]]] = prep{envDir: envDir, repoDir: repoDir, tc: tc}
	}
}

// runHook executes one hook across its batches and fills in outcome.
func (e *Engine) runHook(ctx context.Context, h *hook.Hook, files []string, p prep, sem *semaphore.Weighted, workers int, outcome *Outcome) {
	adapter, _ := e.languages.Get(h.Language)
	start := time.Now()

	before := snapshotFiles(e.workDir, files)
	batches := batchesFor(h, files, workers)

	outputs := make([]*runner.Output, len(batches))
	errs := make([]error, len(batches))
	bg, bgctx := errgroup.WithContext(ctx)
	if h.RequireSerial {
		bg.SetLimit(1)
	}
	for bi, batch := range batches {
		bg.Go(func() error {
			if err := sem.Acquire(bgctx, 1); err != nil {
				errs[bi] = err
				return nil
			}
			defer sem.Release(1)
			outputs[bi], errs[bi] = adapter.Run(bgctx, &language.RunContext{
				Hook:      h,
				EnvDir:    p.envDir,
				Toolchain: p.tc,
				RepoDir:   p.repoDir,
				WorkDir:   e.workDir,
				Files:     batch,
			})
			return nil
		})
	}
	bg.Wait() //nolint:errcheck // batch errors are collected per index

	outcome.Duration = time.Since(start)
	failed := false
	for bi := range batches {
		if errs[bi] != nil {
			failed = true
			outcome.Err = errs[bi]
			continue
		}
		if outputs[bi] != nil {
			outcome.Output = append(outcome.Output, outputs[bi].Combined...)
			if outputs[bi].ExitCode != 0 {
				failed = true
			}
		}
	}

	outcome.Modified = modifiedSince(e.workDir, files, before)
	switch {
	case failed:
		outcome.Status = StatusFailed
	case outcome.Modified:
		outcome.Status = StatusPassedModified
	default:
		outcome.Status = StatusPassed
	}

	if h.LogFile != "" {
		if err := appendLog(h.LogFile, outcome.Output); err != nil {
			slog.Warn("could not write hook log file", "hook", h.ID, "file", h.LogFile, "error", err)
		}
	}
}

// hasToolchain reports whether a language resolves an interpreter or
// runtime binary. Docker environments are images, not toolchains.
func hasToolchain(lang hook.Language) bool {
	switch lang {
	case hook.LanguagePython, hook.LanguageNode, hook.LanguageGolang:
		return true
	}
	return false
}

func matchesAny(h *hook.Hook, selectors []string) bool {
	for _, sel := range selectors {
		if h.Matches(sel) {
			return true
		}
	}
	return false
}

func appendLog(path string, output []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(output)
	return err
}
