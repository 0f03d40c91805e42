// SPDX-License-Identifier: MPL-2.0

package language

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/prekit/prekit/internal/container"
	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
)

// workdirMount is where the project root is mounted inside hook
// containers.
const workdirMount = "/src"

// Docker builds an image from the hook repository's Dockerfile and runs
// the entry in a container with the project root mounted. The store
// entry only records the image tag; the image itself lives in the
// engine's image store.
type Docker struct {
	preferred  container.EngineType
	engineOnce sync.Once
	engine     container.Engine
	engineErr  error
}

// NewDocker returns a Docker adapter with lazy engine detection,
// trying the preferred engine first.
func NewDocker(preferred container.EngineType) *Docker {
	return &Docker{preferred: preferred}
}

func (*Docker) Language() hook.Language { return hook.LanguageDocker }

func (d *Docker) getEngine(ctx context.Context) (container.Engine, error) {
	d.engineOnce.Do(func() {
		d.engine, d.engineErr = container.Detect(ctx, d.preferred)
	})
	return d.engine, d.engineErr
}

// imageTagFile records the built image tag inside the store entry.
const imageTagFile = "image-tag"

func (d *Docker) Install(ctx context.Context, in *InstallContext) error {
	eng, err := d.getEngine(ctx)
	if err != nil {
		return err
	}
	tag := "prekit-" + in.EnvID
	if err := eng.Build(ctx, container.BuildOptions{ContextDir: in.RepoDir, Tag: tag}); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(in.EnvDir, imageTagFile), []byte(tag+"\n"), 0o644)
}

func (d *Docker) Healthy(envDir string) bool {
	_, err := os.Stat(filepath.Join(envDir, imageTagFile))
	return err == nil
}

func (d *Docker) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	eng, err := d.getEngine(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(rc.EnvDir, imageTagFile))
	if err != nil {
		return nil, fmt.Errorf("read image tag: %w", err)
	}
	tag := strings.TrimSpace(string(raw))

	// The image can disappear from the engine (image prune) while the
	// store entry survives. Rebuild from the cached source checkout.
	exists, err := eng.ImageExists(ctx, tag)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := eng.Build(ctx, container.BuildOptions{ContextDir: rc.RepoDir, Tag: tag}); err != nil {
			return nil, err
		}
	}

	argv, err := hookCommand(rc)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx, container.RunOptions{
		Image:      tag,
		Entrypoint: argv[:1],
		Command:    argv[1:],
		WorkDir:    workdirMount,
		Volumes:    []string{rc.WorkDir + ":" + workdirMount},
		User:       currentUser(),
	})
}

// DockerImage runs a prebuilt image; the entry's first word is the
// image reference, the rest is the command.
type DockerImage struct {
	preferred  container.EngineType
	engineOnce sync.Once
	engine     container.Engine
	engineErr  error
}

// NewDockerImage returns a DockerImage adapter with lazy engine
// detection, trying the preferred engine first.
func NewDockerImage(preferred container.EngineType) *DockerImage {
	return &DockerImage{preferred: preferred}
}

func (*DockerImage) Language() hook.Language { return hook.LanguageDockerImage }

func (d *DockerImage) Install(context.Context, *InstallContext) error { return nil }

func (d *DockerImage) Healthy(string) bool { return true }

func (d *DockerImage) Run(ctx context.Context, rc *RunContext) (*runner.Output, error) {
	d.engineOnce.Do(func() {
		d.engine, d.engineErr = container.Detect(ctx, d.preferred)
	})
	if d.engineErr != nil {
		return nil, d.engineErr
	}

	argv, err := hookCommand(rc)
	if err != nil {
		return nil, err
	}
	return d.engine.Run(ctx, container.RunOptions{
		Image:   argv[0],
		Command: argv[1:],
		WorkDir: workdirMount,
		Volumes: []string{rc.WorkDir + ":" + workdirMount},
		User:    currentUser(),
	})
}

// currentUser returns the uid:gid mapping for container runs, so files
// written into the mounted worktree keep the invoking user's ownership.
func currentUser() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}
