// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bootkit.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/bootkit/bootkit/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "bootkit",
		Short: "Inspect and dry-run modular application bootstraps",
		Long: TitleStyle.Render("bootkit") + SubtitleStyle.Render(" - modular application bootstrap") + `

bootkit reads a module manifest, computes the order in which modules
bootstrap, and explains what went wrong when that order cannot exist.

` + SubtitleStyle.Render("Examples:") + `
  bootkit order bootkit.cue             Show the bootstrap order
  bootkit graph --format mermaid app.hcl
  bootkit validate bootkit.yaml         Check a manifest
  bootkit boot bootkit.cue --metrics    Dry-run the bootstrap
  bootkit explain 3                     Explain an issue`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is <user config dir>/bootkit/config.cue)")
	root.PersistentFlags().StringVar(&app.envFile, "env-file", ".env", "dotenv file with BOOTKIT_* overrides")

	root.AddCommand(
		newOrderCommand(app),
		newGraphCommand(app),
		newValidateCommand(app),
		newBootCommand(app),
		newExplainCommand(),
		newConfigCommand(app),
		newLockCommand(app),
	)
	presentErrors(root, app)
	return root
}

// displayError renders its cause through formatErrorForDisplay.
type displayError struct {
	err     error
	verbose bool
}

func (e *displayError) Error() string { return formatErrorForDisplay(e.err, e.verbose) }

func (e *displayError) Unwrap() error { return e.err }

// presentErrors wraps every RunE in the tree so returned errors print with
// suggestions and an explain hint.
func presentErrors(c *cobra.Command, app *App) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			if err := run(cmd, args); err != nil {
				return &displayError{err: err, verbose: app.verbose}
			}
			return nil
		}
	}
	for _, sub := range c.Commands() {
		presentErrors(sub, app)
	}
}

// Execute runs the CLI and exits with the command's status.
func Execute() {
	app := NewApp(Dependencies{})
	root := NewRootCommand(app)
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(fmt.Sprintf("%s (commit: %s)", Version, Commit)),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats err for the user, pointing at the matching
// explain page when one exists.
func formatErrorForDisplay(err error, verbose bool) string {
	msg := err.Error()
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		msg = ae.Format(verbose)
	}
	if i, ok := issue.Classify(err); ok {
		msg += "\n\n" + SubtitleStyle.Render(fmt.Sprintf("Run 'bootkit explain %d' for help.", i.Id()))
	}
	return msg
}
