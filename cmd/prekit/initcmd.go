// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/gitx"
)

const starterConfig = `repos:
  - repo: meta
    hooks:
      - id: check-hooks-apply
  - repo: local
    hooks:
      - id: trailing-whitespace
        name: trim trailing whitespace
        entry: prekit builtin trailing-whitespace
        language: system
        types: [text]
      - id: end-of-file-fixer
        name: fix end of files
        entry: prekit builtin end-of-file-fixer
        language: system
        types: [text]
      - id: check-added-large-files
        name: check for added large files
        entry: prekit builtin check-added-large-files
        language: system
`

// initCmd writes a starter config with the builtin fixers enabled.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter .prekit.yaml",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		root, err := gitx.RepoRoot(ctx, wd)
		if err != nil {
			root = wd
		}
		path := filepath.Join(root, ".prekit.yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}
