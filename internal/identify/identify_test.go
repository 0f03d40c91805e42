// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, content []byte, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTagsFromPathByExtension(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    []string
	}{
		{"main.py", []byte("print()\n"), []string{"python", "text", "file"}},
		{"main.go", []byte("package main\n"), []string{"go", "text", "file"}},
		{"conf.yaml", []byte("a: 1\n"), []string{"yaml", "text", "file"}},
		{"img.png", []byte{0x89, 0x50, 0x4e, 0x47}, []string{"image", "png", "binary", "file"}},
		{"Dockerfile", []byte("FROM scratch\n"), []string{"dockerfile", "text", "file"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := TagsFromPath(writeFile(t, tt.name, tt.content, 0o644))
			for _, want := range tt.want {
				if !HasTag(tags, want) {
					t.Errorf("tags %v missing %q", tags, want)
				}
			}
		})
	}
}

func TestTagsFromPathExecutable(t *testing.T) {
	path := writeFile(t, "tool", []byte("#!/usr/bin/env python3\nprint()\n"), 0o755)
	tags := TagsFromPath(path)
	for _, want := range []string{"file", "executable", "python", "text"} {
		if !HasTag(tags, want) {
			t.Errorf("tags %v missing %q", tags, want)
		}
	}
	if HasTag(tags, "non-executable") {
		t.Errorf("tags %v should not contain non-executable", tags)
	}
}

func TestTagsFromPathBinarySniff(t *testing.T) {
	path := writeFile(t, "blob", []byte{0x00, 0x01, 0x02}, 0o644)
	tags := TagsFromPath(path)
	if !HasTag(tags, "binary") {
		t.Errorf("tags %v missing binary", tags)
	}
	if HasTag(tags, "text") {
		t.Errorf("tags %v should not contain text", tags)
	}
}

func TestTagsFromPathMissingFile(t *testing.T) {
	tags := TagsFromPath(filepath.Join(t.TempDir(), "gone.py"))
	if !HasTag(tags, "python") {
		t.Errorf("missing file should still get name tags, got %v", tags)
	}
	if HasTag(tags, "file") {
		t.Errorf("missing file should not be tagged file, got %v", tags)
	}
}

func TestTagsFromPathSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}
	tags := TagsFromPath(link)
	if len(tags) != 1 || tags[0] != "symlink" {
		t.Errorf("TagsFromPath(symlink) = %v, want [symlink]", tags)
	}
}

func TestShebangEnvIndirection(t *testing.T) {
	got := shebangInterpreterTags("#!/usr/bin/env bash")
	if !HasTag(got, "bash") {
		t.Errorf("env indirection not resolved: %v", got)
	}
	got = shebangInterpreterTags("#!/usr/local/bin/python3.11")
	if !HasTag(got, "python") {
		t.Errorf("versioned interpreter not resolved: %v", got)
	}
}
