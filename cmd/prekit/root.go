// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/prekit/prekit/internal/config"
	"github.com/prekit/prekit/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose raises log level and prints output of passing hooks.
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "prekit",
		Short: "Run project hooks against changed files",
		Long: TitleStyle.Render("prekit") + SubtitleStyle.Render(" - a hook runner for git repositories") + `

prekit runs the checks and fixers declared in .prekit.yaml against the
files a change touches. Hook environments (python venvs, npm prefixes,
go bins, container images) are built on demand into a shared cache and
reused across runs and repositories.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'prekit init' to create a starter .prekit.yaml
  2. Run 'prekit install' to wire it into git
  3. Commit as usual; hooks run automatically

` + SubtitleStyle.Render("Examples:") + `
  prekit run                    Run hooks against staged files
  prekit run --all-files        Run hooks against every tracked file
  prekit run --stage pre-push   Run the pre-push hooks
  prekit list                   Show the resolved hook set
  prekit gc                     Drop cache entries nothing references`,
	}
)

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(builtinCmd)
}

// initLogging installs the charm handler as the slog default, so the
// internal packages' slog calls surface in CLI style.
func initLogging() {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
	})
	slog.SetDefault(slog.New(handler))
	config.CurrentVersion = versionNumber()
}

func versionNumber() string {
	if Version == "dev" {
		return ""
	}
	return Version
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. Called by main.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay prefers the actionable rendering when the
// error chain carries one.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
