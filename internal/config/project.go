// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates project configuration and hook
// repository manifests, and resolves them into the executable hook
// list. Validation happens against an embedded CUE schema before any
// value is trusted.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/prekit/prekit/internal/issue"
)

//go:embed schema.cue
var projectSchema string

// Project config file names, in lookup order.
var projectFileNames = []string{".prekit.yaml", ".prekit.yml"}

// FindProjectFile locates the project config at the repository root.
func FindProjectFile(root string) (string, error) {
	for _, name := range projectFileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", issue.NewErrorContext().
		WithOperation("find project config").
		WithResource(root).
		WithSuggestion("Run 'prekit init' to create a starter .prekit.yaml").
		WithSuggestion("Run prekit from the repository that carries one").
		Wrap(os.ErrNotExist).
		BuildError()
}

// LoadProject reads, schema-validates, and decodes a project config.
func LoadProject(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}
	if err := validateAgainstSchema(projectSchema, path, data); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate project config").
			WithResource(path).
			WithSuggestion("Run 'prekit validate' for the full report").
			WithSuggestion("Check field names and language/stage spellings").
			Wrap(err).
			BuildError()
	}

	var cfg ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode project config %s: %w", path, err)
	}
	return &cfg, nil
}

// validateAgainstSchema unifies YAML data with a CUE schema. CUE gives
// field-level positions in its error details, which beats a decode
// error pointing at the whole document.
func validateAgainstSchema(schemaSrc, filename string, data []byte) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return fmt.Errorf("compile schema: %w", schema.Err())
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	value := cctx.BuildFile(file)
	if value.Err() != nil {
		return fmt.Errorf("build yaml value: %w", value.Err())
	}

	// Concreteness is required so that a missing mandatory field (a
	// remote repo without rev, a manifest hook without entry) fails
	// here instead of surfacing as a zero value later.
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema violation:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}
