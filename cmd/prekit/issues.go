// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/issue"
)

// issuesCmd renders the full diagnostic catalog. The cards normally
// appear one at a time when a run hits the matching failure; this
// lets users browse the remedies up front.
var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Show the catalog of known failure classes and their remedies",
	RunE: func(_ *cobra.Command, _ []string) error {
		all := issue.Values()
		slices.SortFunc(all, func(a, b *issue.Issue) int {
			return int(a.Id()) - int(b.Id())
		})
		for _, is := range all {
			rendered, err := is.Render("dark")
			if err != nil {
				return fmt.Errorf("render issue %d: %w", is.Id(), err)
			}
			fmt.Print(rendered)
		}
		return nil
	},
}
