// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/builtin"
	"github.com/prekit/prekit/internal/config"
	"github.com/prekit/prekit/internal/gitx"
)

// builtinCmd is the execution surface for the hooks that ship in the
// binary: their entries read "prekit builtin <name>", so they flow
// through the engine like any system-language hook. Hidden because it
// is an implementation detail, not a user command.
var builtinCmd = &cobra.Command{
	Use:    "builtin <name> [args...]",
	Short:  "Run a built-in hook",
	Hidden: true,
	Args:   cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fn, err := builtin.Lookup(args[0])
		if err != nil {
			return err
		}

		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		env := &builtin.Env{WorkDir: wd, Stdout: os.Stdout}

		// The self-checks resolve the full hook set, which may need
		// manifests fetched into the store.
		if root, err := gitx.RepoRoot(ctx, wd); err == nil {
			env.WorkDir = root
		}
		if _, st, err := loadStore(); err == nil {
			env.Manifests = config.StoreManifestLoader(st)
		}

		code, err := fn(ctx, env, args[1:])
		if err != nil {
			return fmt.Errorf("builtin %s: %w", args[0], err)
		}
		if code != 0 {
			return &ExitError{Code: code}
		}
		return nil
	},
}
