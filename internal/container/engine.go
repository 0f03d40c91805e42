// SPDX-License-Identifier: MPL-2.0

// Package container abstracts the container engines (Docker or Podman)
// used by docker and docker_image hooks. Both engines share a CLI
// surface; the abstraction picks whichever is installed and responding.
package container

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/prekit/prekit/internal/runner"
)

// Engine types, in detection preference order.
const (
	EngineDocker EngineType = "docker"
	EnginePodman EngineType = "podman"
)

type (
	// EngineType identifies a container engine.
	EngineType string

	// Engine runs images and builds for hook execution.
	Engine interface {
		Name() string
		Available(ctx context.Context) bool
		Build(ctx context.Context, opts BuildOptions) error
		Run(ctx context.Context, opts RunOptions) (*runner.Output, error)
		ImageExists(ctx context.Context, image string) (bool, error)
		RemoveImage(ctx context.Context, image string) error
	}

	// BuildOptions describe one image build.
	BuildOptions struct {
		ContextDir string
		Tag        string
		// Pull refreshes the base image before building.
		Pull bool
	}

	// RunOptions describe one container run. The container is always
	// removed after exit.
	RunOptions struct {
		Image      string
		Entrypoint []string
		Command    []string
		WorkDir    string
		Env        map[string]string
		// Volumes are "host:container[:opts]" mounts.
		Volumes []string
		// User is the uid:gid to run as, so files the hook writes into
		// the mounted worktree stay owned by the invoking user.
		User string
	}

	// NotAvailableError means no usable engine was found.
	NotAvailableError struct {
		Tried []string
	}
)

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("no container engine available (tried %s)", strings.Join(e.Tried, ", "))
}

// Detect returns the preferred engine if usable, falling back to the
// other one. The result is not cached; callers resolve once per run.
func Detect(ctx context.Context, preferred EngineType) (Engine, error) {
	order := []EngineType{EngineDocker, EnginePodman}
	if preferred == EnginePodman {
		order = []EngineType{EnginePodman, EngineDocker}
	}
	var tried []string
	for _, typ := range order {
		eng := &cliEngine{exe: string(typ)}
		if eng.Available(ctx) {
			return eng, nil
		}
		tried = append(tried, string(typ))
	}
	return nil, &NotAvailableError{Tried: tried}
}

// cliEngine drives an engine through its command-line interface, which
// docker and podman keep mutually compatible for the subset used here.
type cliEngine struct {
	exe string
}

func (e *cliEngine) Name() string { return e.exe }

func (e *cliEngine) Available(ctx context.Context) bool {
	path, err := exec.LookPath(e.exe)
	if err != nil {
		return false
	}
	// The binary existing is not enough; the daemon (or podman socket)
	// must answer.
	out, err := runner.Run(ctx, runner.Cmd{Name: path, Args: []string{"info", "--format", "{{.ID}}"}})
	return err == nil && out.ExitCode == 0
}

func (e *cliEngine) Build(ctx context.Context, opts BuildOptions) error {
	args := []string{"build", "--tag", opts.Tag}
	if opts.Pull {
		args = append(args, "--pull")
	}
	args = append(args, opts.ContextDir)
	out, err := runner.Run(ctx, runner.Cmd{Name: e.exe, Args: args})
	if err != nil {
		return fmt.Errorf("%s build: %w", e.exe, err)
	}
	if out.ExitCode != 0 {
		return fmt.Errorf("%s build %s failed: %s", e.exe, opts.Tag, lastLines(out.Combined, 5))
	}
	return nil
}

func (e *cliEngine) Run(ctx context.Context, opts RunOptions) (*runner.Output, error) {
	return runner.Run(ctx, runner.Cmd{Name: e.exe, Args: runArgs(opts)})
}

// runArgs assembles the argv after the engine name. Split out so tests
// can assert on argument construction without an engine installed.
func runArgs(opts RunOptions) []string {
	args := []string{"run", "--rm"}
	if opts.User != "" {
		args = append(args, "--user", opts.User)
	}
	if opts.WorkDir != "" {
		args = append(args, "--workdir", opts.WorkDir)
	}
	for _, v := range opts.Volumes {
		args = append(args, "--volume", v)
	}
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--env", k+"="+opts.Env[k])
	}
	if len(opts.Entrypoint) > 0 {
		args = append(args, "--entrypoint", opts.Entrypoint[0])
	}
	args = append(args, opts.Image)
	if len(opts.Entrypoint) > 1 {
		args = append(args, opts.Entrypoint[1:]...)
	}
	args = append(args, opts.Command...)
	return args
}

func (e *cliEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	out, err := runner.Run(ctx, runner.Cmd{Name: e.exe, Args: []string{"image", "inspect", image}})
	if err != nil {
		return false, err
	}
	return out.ExitCode == 0, nil
}

func (e *cliEngine) RemoveImage(ctx context.Context, image string) error {
	out, err := runner.Run(ctx, runner.Cmd{Name: e.exe, Args: []string{"image", "rm", "--force", image}})
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return fmt.Errorf("%s image rm %s: %s", e.exe, image, lastLines(out.Combined, 3))
	}
	return nil
}

func lastLines(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
