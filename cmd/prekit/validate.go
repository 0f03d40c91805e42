// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	validateHooks bool

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the project configuration",
		Long: `Check .prekit.yaml against the schema. With --hooks the referenced
hook repositories are fetched and their manifests checked too, which
catches dangling hook ids before a commit does.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}
			if validateHooks {
				hooks, err := a.hooks(ctx)
				if err != nil {
					fmt.Fprintln(os.Stderr, formatErrorForDisplay(err, verbose))
					return &ExitError{Code: 1, Err: err}
				}
				fmt.Printf("%s %s (%d hooks)\n", SuccessStyle.Render("valid:"), a.cfgPath, len(hooks))
				return nil
			}
			fmt.Printf("%s %s\n", SuccessStyle.Render("valid:"), a.cfgPath)
			return nil
		},
	}
)

func init() {
	validateCmd.Flags().BoolVar(&validateHooks, "hooks", false, "also fetch hook repositories and resolve the hook set")
}
