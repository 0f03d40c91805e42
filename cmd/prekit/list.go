// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// listCmd prints the fully resolved hook set, one per line, so the
// merge of manifests, overrides and defaults can be inspected.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the resolved hooks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}
		hooks, err := a.hooks(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
			return &ExitError{Code: 1, Err: err}
		}
		for _, h := range hooks {
			if verbose {
				fmt.Println(h.Summary())
				continue
			}
			fmt.Println(h.ID)
		}
		return nil
	},
}
