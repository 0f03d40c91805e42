// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cleanCmd wipes the whole cache. Everything in it is rebuildable, so
// this is the blunt recovery tool for a corrupted store.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the entire hook environment cache",
	RunE: func(_ *cobra.Command, _ []string) error {
		settings, _, err := loadStore()
		if err != nil {
			return err
		}
		if err := os.RemoveAll(settings.CacheDir); err != nil {
			return fmt.Errorf("remove cache: %w", err)
		}
		fmt.Printf("removed %s\n", settings.CacheDir)
		return nil
	},
}
