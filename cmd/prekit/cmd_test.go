// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prekit/prekit/internal/config"
	"github.com/prekit/prekit/internal/hook"
)

func TestHookScript(t *testing.T) {
	script := hookScript(hook.StagePreCommit)
	if !strings.HasPrefix(script, "#!/usr/bin/env sh\n") {
		t.Errorf("missing shebang: %q", script)
	}
	if !strings.Contains(script, hookScriptMarker) {
		t.Error("missing ownership marker")
	}
	if !strings.Contains(script, "prekit run --stage pre-commit") {
		t.Errorf("script = %q", script)
	}

	msgScript := hookScript(hook.StageCommitMsg)
	if !strings.Contains(msgScript, `--commit-msg-filename "$1"`) {
		t.Errorf("commit-msg script must forward the message file: %q", msgScript)
	}

	pushScript := hookScript(hook.StagePrePush)
	if !strings.Contains(pushScript, "prekit run --stage pre-push --hook-stdin") {
		t.Errorf("pre-push script must forward the ref listing: %q", pushScript)
	}
}

func TestParsePushRefs(t *testing.T) {
	const zero = "0000000000000000000000000000000000000000"
	input := strings.Join([]string{
		"refs/heads/main aaa1111111111111111111111111111111111111 refs/heads/main bbb2222222222222222222222222222222222222",
		"refs/heads/gone " + zero + " refs/heads/gone ccc3333333333333333333333333333333333333",
		"refs/heads/new ddd4444444444444444444444444444444444444 refs/heads/new " + zero,
		"malformed line",
	}, "\n")

	refs, err := parsePushRefs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parsePushRefs() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("refs = %+v, want 2 (deletion and malformed line dropped)", refs)
	}
	if refs[0].NewRef || refs[0].LocalSHA != "aaa1111111111111111111111111111111111111" ||
		refs[0].RemoteSHA != "bbb2222222222222222222222222222222222222" {
		t.Errorf("updated ref parsed as %+v", refs[0])
	}
	if !refs[1].NewRef || refs[1].LocalSHA != "ddd4444444444444444444444444444444444444" {
		t.Errorf("new ref parsed as %+v", refs[1])
	}
}

func TestInstallHookScriptPreservesForeignHook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pre-commit")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho mine\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := installHookScript(dir, hook.StagePreCommit); err != nil {
		t.Fatal(err)
	}
	if !ownsHookScript(path) {
		t.Error("installed script not recognized as ours")
	}
	legacy, err := os.ReadFile(path + ".legacy")
	if err != nil {
		t.Fatalf("legacy hook not preserved: %v", err)
	}
	if !strings.Contains(string(legacy), "echo mine") {
		t.Errorf("legacy content = %q", legacy)
	}

	// Reinstalling over our own script must not stack legacies.
	if err := installHookScript(dir, hook.StagePreCommit); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path + ".legacy"); !strings.Contains(string(got), "echo mine") {
		t.Errorf("legacy overwritten on reinstall: %q", got)
	}
}

func TestInstallTargets(t *testing.T) {
	a := &app{cfg: &config.ProjectConfig{}}

	got, err := installTargets(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != hook.StagePreCommit {
		t.Errorf("default targets = %v", got)
	}

	a.cfg.DefaultStages = []string{"pre-push", "commit-msg"}
	got, err = installTargets(a)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != hook.StagePrePush {
		t.Errorf("config targets = %v", got)
	}

	a.cfg.DefaultStages = []string{"not-a-stage"}
	if _, err := installTargets(a); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestSelectHooks(t *testing.T) {
	hooks := []*hook.Hook{
		{ID: "black"},
		{ID: "mypy", Alias: "types"},
		{ID: "flake8"},
	}
	got := selectHooks(hooks, []string{"types", "flake8"})
	if len(got) != 2 || got[0].ID != "mypy" || got[1].ID != "flake8" {
		t.Errorf("selected = %v", got)
	}
	if got := selectHooks(hooks, []string{"nope"}); got != nil {
		t.Errorf("selected = %v, want none", got)
	}
}

func TestSkipList(t *testing.T) {
	t.Setenv("SKIP", " black , ,mypy")
	got := skipList()
	if len(got) != 2 || got[0] != "black" || got[1] != "mypy" {
		t.Errorf("skip = %v", got)
	}

	t.Setenv("SKIP", "")
	if got := skipList(); got != nil {
		t.Errorf("skip = %v, want none", got)
	}
}
