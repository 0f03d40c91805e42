// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/prekit/prekit/internal/container"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

func TestSplitEntry(t *testing.T) {
	tests := []struct {
		entry string
		want  []string
	}{
		{"black", []string{"black"}},
		{"mypy --strict", []string{"mypy", "--strict"}},
		{`sh -c 'echo "a b"'`, []string{"sh", "-c", `echo "a b"`}},
		{`check --msg="two words"`, []string{"check", "--msg=two words"}},
	}
	for _, tt := range tests {
		got, err := splitEntry(tt.entry)
		if err != nil {
			t.Errorf("splitEntry(%q): %v", tt.entry, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitEntry(%q) = %v, want %v", tt.entry, got, tt.want)
		}
	}

	if _, err := splitEntry(""); err == nil {
		t.Error("empty entry accepted")
	}
	if _, err := splitEntry("unterminated 'quote"); err == nil {
		t.Error("unterminated quote accepted")
	}
}

func TestHookCommand(t *testing.T) {
	rc := &RunContext{
		Hook: &hook.Hook{
			Entry:         "linter --fix",
			Args:          []string{"--color"},
			PassFilenames: true,
		},
		Files: []string{"a.go", "b.go"},
	}
	got, err := hookCommand(rc)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"linter", "--fix", "--color", "a.go", "b.go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("hookCommand = %v, want %v", got, want)
	}

	rc.Hook.PassFilenames = false
	got, err = hookCommand(rc)
	if err != nil {
		t.Fatal(err)
	}
	want = []string{"linter", "--fix", "--color"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("hookCommand without filenames = %v, want %v", got, want)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(container.EngineDocker)
	for _, lang := range []hook.Language{
		hook.LanguagePython, hook.LanguageNode, hook.LanguageGolang,
		hook.LanguageDocker, hook.LanguageDockerImage, hook.LanguageSystem,
		hook.LanguageScript, hook.LanguagePygrep, hook.LanguageFail,
	} {
		a, err := r.Get(lang)
		if err != nil {
			t.Errorf("Get(%s): %v", lang, err)
			continue
		}
		if a.Language() != lang {
			t.Errorf("Get(%s) returned adapter for %s", lang, a.Language())
		}
	}

	_, err := r.Get(hook.Language("cobol"))
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Get(cobol) error = %v, want UnsupportedError", err)
	}
	if unsupported.Language != "cobol" {
		t.Errorf("UnsupportedError.Language = %q", unsupported.Language)
	}
}

func TestFailAdapter(t *testing.T) {
	f := &Fail{}
	out, err := f.Run(context.Background(), &RunContext{
		Hook:  &hook.Hook{Entry: "do not commit secrets"},
		Files: []string{"config/prod.env", "id_rsa"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", out.ExitCode)
	}
	text := string(out.Combined)
	for _, want := range []string{"do not commit secrets", "config/prod.env", "id_rsa"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPygrep(t *testing.T) {
	dir := t.TempDir()
	clean := writeTestFile(t, dir, "clean.py", "import os\nprint(1)\n")
	dirty := writeTestFile(t, dir, "dirty.py", "import os\nimport pdb; pdb.set_trace()\n")

	p := &Pygrep{}
	run := func(entry string, args, files []string) *runner.Output {
		t.Helper()
		out, err := p.Run(context.Background(), &RunContext{
			Hook:  &hook.Hook{Entry: entry, Args: args},
			Files: files,
		})
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	t.Run("match fails with location", func(t *testing.T) {
		out := run(`pdb\.set_trace`, nil, []string{clean, dirty})
		if out.ExitCode != 1 {
			t.Fatalf("exit = %d, want 1", out.ExitCode)
		}
		if !strings.Contains(string(out.Combined), dirty+":2:") {
			t.Errorf("output = %q, want %s:2:", out.Combined, dirty)
		}
		if strings.Contains(string(out.Combined), clean) {
			t.Errorf("clean file reported: %q", out.Combined)
		}
	})

	t.Run("no match passes", func(t *testing.T) {
		if out := run(`pdb\.set_trace`, nil, []string{clean}); out.ExitCode != 0 {
			t.Errorf("exit = %d, output %q", out.ExitCode, out.Combined)
		}
	})

	t.Run("ignore case", func(t *testing.T) {
		upper := writeTestFile(t, dir, "upper.py", "PDB.SET_TRACE()\n")
		if out := run(`pdb\.set_trace`, []string{"--ignore-case"}, []string{upper}); out.ExitCode != 1 {
			t.Errorf("case-insensitive match missed")
		}
	})

	t.Run("negate", func(t *testing.T) {
		out := run(`import os`, []string{"--negate"}, []string{clean, dirty})
		if out.ExitCode != 0 {
			t.Errorf("files with match failed under --negate: %q", out.Combined)
		}
		missing := writeTestFile(t, dir, "missing.py", "print(2)\n")
		out = run(`import os`, []string{"--negate"}, []string{missing})
		if out.ExitCode != 1 {
			t.Error("file without match passed under --negate")
		}
	})

	t.Run("multiline", func(t *testing.T) {
		multi := writeTestFile(t, dir, "multi.txt", "begin\nmiddle\nend\n")
		out := run(`begin.*end`, []string{"--multiline"}, []string{multi})
		if out.ExitCode != 1 {
			t.Fatal("multiline pattern did not span lines")
		}
		if !strings.Contains(string(out.Combined), multi+":1") {
			t.Errorf("output = %q", out.Combined)
		}
	})

	t.Run("relative paths resolve against WorkDir", func(t *testing.T) {
		work := t.TempDir()
		writeTestFile(t, work, "hooked.py", "pdb.set_trace()\n")
		out, err := p.Run(context.Background(), &RunContext{
			Hook:    &hook.Hook{Entry: `pdb\.set_trace`},
			WorkDir: work,
			Files:   []string{"hooked.py"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if out.ExitCode != 1 {
			t.Fatalf("exit = %d, want 1 (file not found under WorkDir?): %q", out.ExitCode, out.Combined)
		}
		if !strings.Contains(string(out.Combined), "hooked.py:1:") {
			t.Errorf("output = %q, want hooked.py:1:", out.Combined)
		}
	})

	t.Run("bad pattern is an error", func(t *testing.T) {
		_, err := p.Run(context.Background(), &RunContext{
			Hook:  &hook.Hook{Entry: "(unclosed"},
			Files: []string{clean},
		})
		if err == nil {
			t.Error("invalid pattern accepted")
		}
	})
}

func TestRelocateBinScripts(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, ".py-abc123.tmp-42")
	final := filepath.Join(root, "py-abc123")
	bin := filepath.Join(staging, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}

	// pip console script: shebang carries the absolute staging path.
	script := filepath.Join(bin, "black")
	shebang := "#!" + filepath.Join(staging, "bin", "python") + "\nimport black\n"
	if err := os.WriteFile(script, []byte(shebang), 0o755); err != nil {
		t.Fatal(err)
	}
	// activate embeds the path mid-file rather than in a shebang.
	activate := filepath.Join(bin, "activate")
	if err := os.WriteFile(activate, []byte("VIRTUAL_ENV="+staging+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	untouched := filepath.Join(bin, "plain")
	if err := os.WriteFile(untouched, []byte("no paths here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := relocateBinScripts(staging, final); err != nil {
		t.Fatalf("relocateBinScripts() error = %v", err)
	}

	got, err := os.ReadFile(script)
	if err != nil {
		t.Fatal(err)
	}
	want := "#!" + filepath.Join(final, "bin", "python") + "\nimport black\n"
	if string(got) != want {
		t.Errorf("script after relocation = %q, want %q", got, want)
	}
	if info, err := os.Stat(script); err != nil || info.Mode().Perm() != 0o755 {
		t.Errorf("script mode = %v, want 0755 preserved", info.Mode())
	}
	if got, _ := os.ReadFile(activate); string(got) != "VIRTUAL_ENV="+final+"\n" {
		t.Errorf("activate after relocation = %q", got)
	}
	if got, _ := os.ReadFile(untouched); string(got) != "no paths here\n" {
		t.Errorf("file without embedded path was rewritten: %q", got)
	}

	// No-op cases must not fail on a missing bin directory.
	if err := relocateBinScripts(staging, staging); err != nil {
		t.Errorf("same-path relocation: %v", err)
	}
	if err := relocateBinScripts(filepath.Join(root, "absent"), final); err != nil {
		t.Errorf("missing bin dir: %v", err)
	}
}

func TestPipTargets(t *testing.T) {
	remote := &InstallContext{Hook: &hook.Hook{
		Source:                 hook.Source{Repo: "https://example.com/hooks", Rev: "v1"},
		AdditionalDependencies: []string{"requests==2.31.0"},
	}}
	if got := pipTargets(remote); !reflect.DeepEqual(got, []string{".", "requests==2.31.0"}) {
		t.Errorf("remote targets = %v", got)
	}

	local := &InstallContext{Hook: &hook.Hook{
		Source:                 hook.Source{Repo: hook.SourceLocal},
		AdditionalDependencies: []string{"flake8"},
	}}
	if got := pipTargets(local); !reflect.DeepEqual(got, []string{"flake8"}) {
		t.Errorf("local targets = %v", got)
	}
}
