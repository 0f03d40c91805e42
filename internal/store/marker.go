// SPDX-License-Identifier: MPL-2.0

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// MarkerFile is the install marker written into an environment entry
// after a successful install. Its presence is the "install complete"
// stamp; its contents record the exact identity the environment was
// built for so health checks can detect drift.
const MarkerFile = ".prekit-env.toml"

// InstallMarker records what an environment contains. Environments are
// never mutated after the marker is written: a changed version or
// dependency set produces a new environment under a new key.
type InstallMarker struct {
	Language     string    `toml:"language"`
	Version      string    `toml:"version"`
	Dependencies []string  `toml:"dependencies"`
	Toolchain    string    `toml:"toolchain"`
	CreatedAt    time.Time `toml:"created_at"`
}

// WriteMarker serializes the marker into dir. Called by language
// adapters as the final step of a successful install, before the store
// publishes the directory.
func WriteMarker(dir string, m InstallMarker) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode install marker: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerFile), data, 0o644); err != nil {
		return fmt.Errorf("write install marker: %w", err)
	}
	return nil
}

// ReadMarker loads the marker from dir. A missing or unparsable marker
// means the environment cannot be trusted and must be rebuilt.
func ReadMarker(dir string) (*InstallMarker, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return nil, fmt.Errorf("read install marker: %w", err)
	}
	var m InstallMarker
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode install marker: %w", err)
	}
	return &m, nil
}

// HasMarker reports whether dir carries a readable install marker.
func HasMarker(dir string) bool {
	_, err := ReadMarker(dir)
	return err == nil
}
