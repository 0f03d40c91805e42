// SPDX-License-Identifier: MPL-2.0

//go:build unix

package toolchain

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/store"
)

func mustRequest(t *testing.T, raw string) hook.VersionRequest {
	t.Helper()
	req, err := hook.ParseVersionRequest(raw)
	if err != nil {
		t.Fatalf("ParseVersionRequest(%q): %v", raw, err)
	}
	return req
}

// writeFakeExe writes an executable shell script that prints output.
func writeFakeExe(t *testing.T, path, output string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\necho '" + output + "'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"3.11.9", "3.11.9", 0},
		{"3.11", "3.11.0", 0},
		{"3.9.1", "3.11.0", -1},
		{"20.11.1", "16.0.0", 1},
		{"1.21.0", "1.21", 0},
		{"1.22.1", "1.9.9", 1},
	}
	for _, tc := range cases {
		if got := compareVersions(tc.a, tc.b); got != tc.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMeetsFloor(t *testing.T) {
	cases := []struct {
		lang    hook.Language
		version string
		want    bool
	}{
		{hook.LanguagePython, "3.8.0", true},
		{hook.LanguagePython, "3.7.17", false},
		{hook.LanguageNode, "16.0.0", true},
		{hook.LanguageNode, "14.21.3", false},
		{hook.LanguageGolang, "1.21.0", true},
		{hook.LanguageGolang, "1.20.14", false},
	}
	for _, tc := range cases {
		if got := meetsFloor(tc.lang, tc.version); got != tc.want {
			t.Errorf("meetsFloor(%s, %s) = %v, want %v", tc.lang, tc.version, got, tc.want)
		}
	}
}

func TestFindExecutable(t *testing.T) {
	root := t.TempDir()
	writeFakeExe(t, filepath.Join(root, "bin", "node"), "v20.0.0")
	if got := findExecutable(root, "node"); got != filepath.Join(root, "bin", "node") {
		t.Errorf("findExecutable = %q", got)
	}

	// uv layout: one versioned directory level down.
	uvRoot := t.TempDir()
	writeFakeExe(t, filepath.Join(uvRoot, "cpython-3.12.7-linux-x86_64-gnu", "bin", "python3"), "Python 3.12.7")
	want := filepath.Join(uvRoot, "cpython-3.12.7-linux-x86_64-gnu", "bin", "python3")
	if got := findExecutable(uvRoot, "python3", "python"); got != want {
		t.Errorf("findExecutable = %q, want %q", got, want)
	}

	if got := findExecutable(t.TempDir(), "node"); got != "" {
		t.Errorf("findExecutable on empty root = %q, want empty", got)
	}
}

func TestCandidateExecutablesPinnedPython(t *testing.T) {
	names := candidateExecutables(hook.LanguagePython, mustRequest(t, "3.11"))
	if len(names) == 0 || names[0] != "python3.11" {
		t.Errorf("candidates = %v, want python3.11 first", names)
	}
	names = candidateExecutables(hook.LanguagePython, mustRequest(t, ""))
	if names[0] != "python3" {
		t.Errorf("unpinned candidates = %v, want python3 first", names)
	}
}

func TestProbeSystem(t *testing.T) {
	binDir := t.TempDir()
	writeFakeExe(t, filepath.Join(binDir, "node"), "v20.11.1")
	writeFakeExe(t, filepath.Join(binDir, "python3"), "Python 3.11.9")
	t.Setenv("PATH", binDir)

	tc := probeSystem(context.Background(), hook.LanguageNode, mustRequest(t, "20"))
	if tc == nil {
		t.Fatal("node probe found nothing")
	}
	if tc.Version != "20.11.1" || tc.Source != SourceSystem {
		t.Errorf("probe = %+v", tc)
	}

	tc = probeSystem(context.Background(), hook.LanguagePython, mustRequest(t, ""))
	if tc == nil || tc.Version != "3.11.9" {
		t.Fatalf("python probe = %+v", tc)
	}

	if tc := probeSystem(context.Background(), hook.LanguageNode, mustRequest(t, "18")); tc != nil {
		t.Errorf("mismatched request still probed %+v", tc)
	}
}

func TestProbeSystemRejectsBelowFloor(t *testing.T) {
	binDir := t.TempDir()
	writeFakeExe(t, filepath.Join(binDir, "node"), "v14.21.3")
	t.Setenv("PATH", binDir)

	if tc := probeSystem(context.Background(), hook.LanguageNode, mustRequest(t, "")); tc != nil {
		t.Errorf("node 14 accepted despite floor: %+v", tc)
	}
}

func TestFindManagedPrefersNewest(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, version := range []string{"20.9.0", "20.11.1", "18.19.0"} {
		root := st.Path(store.AreaToolchains, "node-"+version)
		writeFakeExe(t, filepath.Join(root, "bin", "node"), "v"+version)
	}

	m := NewManager(st)
	tc := m.findManaged(hook.LanguageNode, mustRequest(t, "20"))
	if tc == nil {
		t.Fatal("no managed toolchain found")
	}
	if tc.Version != "20.11.1" {
		t.Errorf("picked %s, want 20.11.1", tc.Version)
	}
	if tc.Source != SourceManaged || tc.Root == "" {
		t.Errorf("toolchain = %+v", tc)
	}
}

func TestResolveMemoizes(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	root := st.Path(store.AreaToolchains, "golang-1.22.1")
	writeFakeExe(t, filepath.Join(root, "bin", "go"), "go1.22.1")

	m := NewManager(st)
	first, err := m.Resolve(context.Background(), hook.LanguageGolang, mustRequest(t, "1.22"))
	if err != nil {
		t.Fatal(err)
	}

	// Removing the entry does not invalidate the memoized resolution.
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	second, err := m.Resolve(context.Background(), hook.LanguageGolang, mustRequest(t, "1.22"))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Resolve did not return the memoized toolchain")
	}
}

func TestExtractTarGzStripsComponents(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	writeTarFile := func(name, content string, mode int64) {
		t.Helper()
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: mode, Size: int64(len(content))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.WriteHeader(&tar.Header{Name: "node-v20.11.1-linux-x64/bin/", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
	writeTarFile("node-v20.11.1-linux-x64/bin/node", "#!/bin/sh\n", 0o755)
	writeTarFile("node-v20.11.1-linux-x64/README.md", "docs\n", 0o644)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := extractTarGz(&buf, dir, 1); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(dir, "bin", "node"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o111 == 0 {
		t.Error("extracted binary is not executable")
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		t.Errorf("README.md not extracted: %v", err)
	}
}

func TestExtractTarGzRejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := "owned\n"
	if err := tw.WriteHeader(&tar.Header{Name: "top/../../escape", Mode: 0o644, Size: int64(len(content))}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	if err := extractTarGz(&buf, t.TempDir(), 1); err == nil {
		t.Fatal("traversal entry extracted without error")
	}
}
