// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/prekit/prekit/internal/hook"
	"github.com/prekit/prekit/internal/runner"
	"github.com/prekit/prekit/internal/store"
)

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// installManaged downloads and publishes a toolchain into the store.
// The concrete version is resolved first so the store key is stable
// across partial requests that settle on the same release.
func (m *Manager) installManaged(ctx context.Context, lang hook.Language, req hook.VersionRequest) (*Toolchain, error) {
	version, err := pickVersion(ctx, lang, req)
	if err != nil {
		return nil, &UnresolvableError{Language: lang, Request: req.String(), Reason: err.Error()}
	}

	key := string(lang) + "-" + version
	root, err := m.store.Acquire(ctx, store.AcquireOptions{
		Area: store.AreaToolchains,
		Key:  key,
		Build: func(ctx context.Context, dir string) error {
			return installInto(ctx, lang, version, dir)
		},
		Validate: func(dir string) bool {
			return findExecutable(dir, executableNames(lang)...) != ""
		},
	})
	if err != nil {
		return nil, &UnresolvableError{Language: lang, Request: req.String(), Reason: err.Error()}
	}

	exe := findExecutable(root, executableNames(lang)...)
	if exe == "" {
		return nil, &UnresolvableError{Language: lang, Request: req.String(), Reason: "install produced no executable"}
	}
	return &Toolchain{Language: lang, Version: version, Exe: exe, Root: root, Source: SourceManaged}, nil
}

// pickVersion resolves a request to the newest published release
// satisfying it.
func pickVersion(ctx context.Context, lang hook.Language, req hook.VersionRequest) (string, error) {
	switch lang {
	case hook.LanguageNode:
		return pickNodeVersion(ctx, req)
	case hook.LanguageGolang:
		return pickGoVersion(ctx, req)
	case hook.LanguagePython:
		return pickPythonVersion(ctx, req)
	}
	return "", fmt.Errorf("language %s cannot be installed", lang)
}

func installInto(ctx context.Context, lang hook.Language, version, dir string) error {
	switch lang {
	case hook.LanguageNode:
		return installNode(ctx, version, dir)
	case hook.LanguageGolang:
		return installGo(ctx, version, dir)
	case hook.LanguagePython:
		return installPython(ctx, version, dir)
	}
	return fmt.Errorf("language %s cannot be installed", lang)
}

// pickNodeVersion consults the nodejs.org release index.
func pickNodeVersion(ctx context.Context, req hook.VersionRequest) (string, error) {
	var index []struct {
		Version string `json:"version"`
	}
	if err := fetchJSON(ctx, "https://nodejs.org/dist/index.json", &index); err != nil {
		return "", fmt.Errorf("fetch node release index: %w", err)
	}
	best := ""
	for _, rel := range index {
		v := strings.TrimPrefix(rel.Version, "v")
		if !req.Matches(v) || !meetsFloor(hook.LanguageNode, v) {
			continue
		}
		if best == "" || compareVersions(v, best) > 0 {
			best = v
		}
	}
	if best == "" {
		return "", fmt.Errorf("no published node release matches")
	}
	return best, nil
}

func installNode(ctx context.Context, version, dir string) error {
	osName := runtime.GOOS
	arch := map[string]string{"amd64": "x64", "arm64": "arm64", "386": "x86"}[runtime.GOARCH]
	if arch == "" {
		return fmt.Errorf("no node build for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	url := fmt.Sprintf("https://nodejs.org/dist/v%s/node-v%s-%s-%s.tar.gz", version, version, osName, arch)
	return downloadTarGz(ctx, url, dir, 1)
}

// pickGoVersion consults the go.dev download listing, stable releases
// only.
func pickGoVersion(ctx context.Context, req hook.VersionRequest) (string, error) {
	var releases []struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	}
	if err := fetchJSON(ctx, "https://go.dev/dl/?mode=json&include=all", &releases); err != nil {
		return "", fmt.Errorf("fetch go release index: %w", err)
	}
	best := ""
	for _, rel := range releases {
		if !rel.Stable {
			continue
		}
		v := strings.TrimPrefix(rel.Version, "go")
		if !req.Matches(v) || !meetsFloor(hook.LanguageGolang, v) {
			continue
		}
		if best == "" || compareVersions(v, best) > 0 {
			best = v
		}
	}
	if best == "" {
		return "", fmt.Errorf("no stable go release matches")
	}
	return best, nil
}

func installGo(ctx context.Context, version, dir string) error {
	url := fmt.Sprintf("https://go.dev/dl/go%s.%s-%s.tar.gz", version, runtime.GOOS, runtime.GOARCH)
	// The tarball has a single "go/" top-level directory.
	return downloadTarGz(ctx, url, dir, 1)
}

// pickPythonVersion asks uv which standalone cpython builds are
// available. uv is also how the build is installed, so requiring it
// here adds no new dependency.
func pickPythonVersion(ctx context.Context, req hook.VersionRequest) (string, error) {
	uv, err := exec.LookPath("uv")
	if err != nil {
		return "", fmt.Errorf("uv is required to install python toolchains: %w", err)
	}
	out, err := runner.RunChecked(ctx, runner.Cmd{
		Name: uv,
		Args: []string{"python", "list", "--all-versions", "--output-format", "json"},
	})
	if err != nil {
		return "", fmt.Errorf("list uv python downloads: %w", err)
	}
	var listed []struct {
		Version        string `json:"version"`
		Implementation string `json:"implementation"`
	}
	if err := json.Unmarshal(out.Combined, &listed); err != nil {
		return "", fmt.Errorf("parse uv python list: %w", err)
	}
	best := ""
	for _, item := range listed {
		if item.Implementation != "cpython" {
			continue
		}
		if !req.Matches(item.Version) || !meetsFloor(hook.LanguagePython, item.Version) {
			continue
		}
		if best == "" || compareVersions(item.Version, best) > 0 {
			best = item.Version
		}
	}
	if best == "" {
		return "", fmt.Errorf("no cpython build matches")
	}
	return best, nil
}

func installPython(ctx context.Context, version, dir string) error {
	uv, err := exec.LookPath("uv")
	if err != nil {
		return fmt.Errorf("uv is required to install python toolchains: %w", err)
	}
	_, err = runner.RunChecked(ctx, runner.Cmd{
		Name: uv,
		Args: []string{"python", "install", "cpython-" + version},
		Env: map[string]string{
			"UV_PYTHON_INSTALL_DIR": dir,
		},
	})
	if err != nil {
		return fmt.Errorf("uv python install %s: %w", version, err)
	}
	return nil
}

func fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
