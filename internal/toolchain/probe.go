// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

// probeSystem searches PATH for an installation satisfying the request
// and the language floor. Returns nil when none qualifies.
func probeSystem(ctx context.Context, lang hook.Language, req hook.VersionRequest) *Toolchain {
	for _, name := range candidateExecutables(lang, req) {
		exe, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		version, err := versionOf(ctx, lang, exe)
		if err != nil {
			continue
		}
		if !req.Matches(version) || !meetsFloor(lang, version) {
			continue
		}
		return &Toolchain{Language: lang, Version: version, Exe: exe, Source: SourceSystem}
	}
	return nil
}

// candidateExecutables lists PATH names to probe, most specific first.
// A pinned python request also tries the versioned interpreter name so
// "3.11" finds python3.11 next to a too-new python3.
func candidateExecutables(lang hook.Language, req hook.VersionRequest) []string {
	names := executableNames(lang)
	if lang == hook.LanguagePython {
		if v := req.Prefix(); v != "" {
			names = append([]string{"python" + v}, names...)
		}
	}
	return names
}

// versionOf queries an executable for its concrete version.
func versionOf(ctx context.Context, lang hook.Language, exe string) (string, error) {
	switch lang {
	case hook.LanguagePython:
		out, err := runner.RunChecked(ctx, runner.Cmd{Name: exe, Args: []string{"--version"}})
		if err != nil {
			return "", err
		}
		// "Python 3.11.9"
		fields := strings.Fields(string(out.Combined))
		if len(fields) < 2 {
			return "", fmt.Errorf("unexpected python version output %q", out.Combined)
		}
		return fields[len(fields)-1], nil
	case hook.LanguageNode:
		out, err := runner.RunChecked(ctx, runner.Cmd{Name: exe, Args: []string{"--version"}})
		if err != nil {
			return "", err
		}
		// "v20.11.1"
		return strings.TrimPrefix(strings.TrimSpace(string(out.Combined)), "v"), nil
	case hook.LanguageGolang:
		out, err := runner.RunChecked(ctx, runner.Cmd{Name: exe, Args: []string{"env", "GOVERSION"}})
		if err != nil {
			return "", err
		}
		// "go1.22.1"
		return strings.TrimPrefix(strings.TrimSpace(string(out.Combined)), "go"), nil
	}
	return "", fmt.Errorf("language %s has no system toolchain", lang)
}
