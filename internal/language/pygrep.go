// SPDX-License-Identifier: MPL-2.0

package language

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

// Pygrep treats the hook entry as a regular expression and fails on
// files containing a match. Runs in process; no interpreter or
// environment is involved.
type Pygrep struct{}

func (*Pygrep) Language() hook.Language { return hook.LanguagePygrep }

func (*Pygrep) Install(context.Context, *InstallContext) error { return nil }

func (*Pygrep) Healthy(string) bool { return true }

func (*Pygrep) Run(_ context.Context, rc *RunContext) (*runner.Output, error) {
	opts := grepOptions(rc.Hook.Args)
	pattern := rc.Hook.Entry
	if opts.ignoreCase {
		pattern = "(?i)" + pattern
	}
	if opts.multiline {
		pattern = "(?ms)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", rc.Hook.Entry, err)
	}

	var b strings.Builder
	failed := false
	for _, file := range rc.Files {
		// The other adapters run their command in WorkDir, so batch
		// paths are relative to it; resolve the same way here.
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(rc.WorkDir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(&b, "%s: %v\n", file, err)
			failed = true
			continue
		}
		if opts.multiline {
			if loc := re.FindIndex(content); (loc != nil) != opts.negate {
				failed = true
				if loc != nil {
					line := bytes.Count(content[:loc[0]], []byte("\n")) + 1
					fmt.Fprintf(&b, "%s:%d\n", file, line)
				} else {
					fmt.Fprintf(&b, "%s\n", file)
				}
			}
			continue
		}
		matched := false
		for i, line := range bytes.Split(content, []byte("\n")) {
			if re.Match(line) {
				matched = true
				if !opts.negate {
					failed = true
					fmt.Fprintf(&b, "%s:%d:%s\n", file, i+1, line)
				}
			}
		}
		if opts.negate && !matched {
			failed = true
			fmt.Fprintf(&b, "%s\n", file)
		}
	}

	out := &runner.Output{Combined: []byte(b.String())}
	if failed {
		out.ExitCode = 1
	}
	return out, nil
}

type pygrepOptions struct {
	ignoreCase bool
	multiline  bool
	negate     bool
}

func grepOptions(args []string) pygrepOptions {
	var opts pygrepOptions
	for _, arg := range args {
		switch arg {
		case "-i", "--ignore-case":
			opts.ignoreCase = true
		case "--multiline":
			opts.multiline = true
		case "--negate":
			opts.negate = true
		}
	}
	return opts
}
