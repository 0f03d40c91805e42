// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// trailingWhitespace strips trailing spaces and tabs from every line,
// rewriting files in place. Line terminators are preserved, including
// CRLF. Exit 1 when anything was fixed, matching fixer convention.
func trailingWhitespace(_ context.Context, env *Env, args []string) (int, error) {
	fixed := false
	for _, file := range args {
		path := filepath.Join(env.WorkDir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", file, err)
		}
		cleaned := stripTrailingWhitespace(data)
		if bytes.Equal(cleaned, data) {
			continue
		}
		if err := rewrite(path, cleaned); err != nil {
			return 0, err
		}
		fmt.Fprintf(env.Stdout, "Fixing %s\n", file)
		fixed = true
	}
	if fixed {
		return 1, nil
	}
	return 0, nil
}

func stripTrailingWhitespace(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))
	for len(data) > 0 {
		line := data
		rest := []byte(nil)
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, rest = data[:i+1], data[i+1:]
		}
		data = rest

		body, ending := line, []byte(nil)
		if n := len(body); n > 0 && body[n-1] == '\n' {
			if n > 1 && body[n-2] == '\r' {
				body, ending = body[:n-2], body[n-2:]
			} else {
				body, ending = body[:n-1], body[n-1:]
			}
		}
		out.Write(bytes.TrimRight(body, " \t"))
		out.Write(ending)
	}
	return out.Bytes()
}

// endOfFileFixer makes every non-empty file end with exactly one
// newline. Empty files are left alone.
func endOfFileFixer(_ context.Context, env *Env, args []string) (int, error) {
	fixed := false
	for _, file := range args {
		path := filepath.Join(env.WorkDir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", file, err)
		}
		if len(data) == 0 {
			continue
		}
		cleaned := append(bytes.TrimRight(data, "\r\n"), '\n')
		if bytes.Equal(cleaned, data) {
			continue
		}
		if err := rewrite(path, cleaned); err != nil {
			return 0, err
		}
		fmt.Fprintf(env.Stdout, "Fixing %s\n", file)
		fixed = true
	}
	if fixed {
		return 1, nil
	}
	return 0, nil
}

// checkAddedLargeFiles fails for any file whose size exceeds --maxkb
// (default 500). It deliberately never modifies anything.
func checkAddedLargeFiles(_ context.Context, env *Env, args []string) (int, error) {
	fs := flag.NewFlagSet("check-added-large-files", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	maxKB := fs.Int64("maxkb", 500, "maximum file size in KB")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}

	failed := false
	for _, file := range fs.Args() {
		info, err := os.Stat(filepath.Join(env.WorkDir, file))
		if err != nil {
			continue
		}
		if kb := info.Size() / 1024; kb > *maxKB {
			fmt.Fprintf(env.Stdout, "%s (%d KB) exceeds %d KB\n", file, kb, *maxKB)
			failed = true
		}
	}
	if failed {
		return 1, nil
	}
	return 0, nil
}

// rewrite preserves the file's mode while replacing its contents.
func rewrite(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, info.Mode().Perm())
}
