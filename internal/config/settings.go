// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// AppName is the application name, used for cache and env var prefixes.
const AppName = "prekit"

// Settings are the machine-level knobs that live outside the project
// config: where the store goes and how wide the scheduler runs. Every
// key can come from PREKIT_* environment variables.
type Settings struct {
	// CacheDir holds the content-addressed store.
	CacheDir string `mapstructure:"cache_dir"`

	// Workers bounds concurrent hook batches; InstallWorkers bounds
	// concurrent environment installs. Zero means NumCPU.
	Workers        int `mapstructure:"workers"`
	InstallWorkers int `mapstructure:"install_workers"`

	// ContainerEngine prefers "docker" or "podman"; empty auto-detects.
	ContainerEngine string `mapstructure:"container_engine"`

	// Color is "auto", "always" or "never".
	Color string `mapstructure:"color"`
}

// LoadSettings builds the settings from defaults and environment.
func LoadSettings() (*Settings, error) {
	v := viper.New()

	cacheDir, err := defaultCacheDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault("cache_dir", cacheDir)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("install_workers", runtime.NumCPU())
	v.SetDefault("container_engine", "")
	v.SetDefault("color", "auto")

	v.SetEnvPrefix("PREKIT")
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.InstallWorkers <= 0 {
		s.InstallWorkers = runtime.NumCPU()
	}
	return &s, nil
}

// defaultCacheDir follows platform conventions: %LOCALAPPDATA% on
// Windows, ~/Library/Caches on macOS, $XDG_CACHE_HOME elsewhere.
func defaultCacheDir() (string, error) {
	if dir := os.Getenv("PREKIT_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}
