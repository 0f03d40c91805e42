// SPDX-License-Identifier: MPL-2.0

// Package runner spawns and awaits subprocesses with captured output,
// working directory, and environment overrides. Every component that
// shells out (git, language installers, hook entries) goes through it.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Cmd describes one subprocess invocation.
type Cmd struct {
	// Name is the executable to run (looked up on PATH if not absolute).
	Name string
	// Args are the arguments, not including the executable name.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env contains extra environment variables layered over the parent
	// process environment. A nil value inherits the environment unchanged.
	Env map[string]string
	// PrependPath entries are joined in front of the inherited PATH.
	PrependPath []string
	// Stdin is fed to the subprocess when non-nil.
	Stdin []byte
}

// Output is the captured result of a finished subprocess.
type Output struct {
	// ExitCode is the subprocess exit code. -1 when the process was
	// killed by a signal or never started.
	ExitCode int
	// Combined holds stdout and stderr interleaved in arrival order.
	// Hook output merges the two streams, matching what a user would
	// see running the hook by hand.
	Combined []byte
	// Duration is the wall-clock run time.
	Duration time.Duration
}

// ExitError indicates the subprocess ran but exited non-zero.
type ExitError struct {
	Cmd      string
	ExitCode int
	Output   []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.ExitCode)
}

// Run executes the command and waits for it, returning captured output.
// A non-zero exit is not an error: it is reported through Output.ExitCode
// so callers can treat hook failures as data rather than faults. Spawn
// failures (missing binary, bad workdir) return an error with ExitCode -1.
func Run(ctx context.Context, c Cmd) (*Output, error) {
	// exec resolves the binary against the parent PATH, so entries in
	// PrependPath must be searched here for name resolution to agree
	// with the environment the child sees.
	name := c.Name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, os.PathSeparator) {
		for _, dir := range c.PrependPath {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
				name = candidate
				break
			}
		}
	}

	cmd := exec.CommandContext(ctx, name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = buildEnv(c)
	// Give the process a moment to flush output after cancellation
	// before it is killed outright.
	cmd.WaitDelay = 5 * time.Second

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	slog.Debug("running subprocess", "cmd", c.Name, "args", len(c.Args), "dir", c.Dir)

	start := time.Now()
	err := cmd.Run()
	out := &Output{
		Combined: combined.Bytes(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		out.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		out.ExitCode = -1
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		return out, fmt.Errorf("failed to run %s: %w", c.Name, err)
	}

	return out, nil
}

// RunChecked is Run but treats a non-zero exit as an error, for internal
// plumbing commands (git, installers) where failure is exceptional.
func RunChecked(ctx context.Context, c Cmd) (*Output, error) {
	out, err := Run(ctx, c)
	if err != nil {
		return out, err
	}
	if out.ExitCode != 0 {
		return out, &ExitError{Cmd: c.Name, ExitCode: out.ExitCode, Output: out.Combined}
	}
	return out, nil
}

// buildEnv assembles the subprocess environment: inherited vars, then
// overrides, then PATH with any prepended entries.
func buildEnv(c Cmd) []string {
	if c.Env == nil && len(c.PrependPath) == 0 {
		return nil
	}

	env := os.Environ()
	overridden := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		overridden[k] = v
	}

	path := os.Getenv("PATH")
	if len(c.PrependPath) > 0 {
		joined := ""
		for _, p := range c.PrependPath {
			joined += p + string(os.PathListSeparator)
		}
		overridden["PATH"] = joined + path
	}

	result := make([]string, 0, len(env)+len(overridden))
	for _, e := range env {
		name := e
		if i := strings.IndexByte(e, '='); i >= 0 {
			name = e[:i]
		}
		if _, ok := overridden[name]; ok {
			continue
		}
		result = append(result, e)
	}
	for k, v := range overridden {
		result = append(result, k+"="+v)
	}
	return result
}
