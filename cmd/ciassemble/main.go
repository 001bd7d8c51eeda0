// Package main provides the entry point for the ciassemble CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/ciassemble/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd,
		fang.WithVersion(buildVersion()),
		fang.WithErrorHandler(handleError),
	)
	return output.GetExitCode(err)
}

// handleError prints errors that commands have not reported themselves,
// such as flag parsing failures. Commands report ExitErrors through their
// printer before returning them.
func handleError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *output.ExitError
	if errors.As(err, &exitErr) {
		return
	}
	output.NewPrinter(w, false, output.IsTTY(w)).Error(err)
}

// newRootCmd creates the root command for the ciassemble CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ciassemble",
		Short: "Assemble a CI config from import-linked templates",
		Long: `ciassemble - Assemble a single CI configuration file from a master template.

Lines of the form {filename} in the master template are replaced by the
expanded content of that file, recursively, up to --max-depth levels.
Import names must be bare file names in the working directory.

Run without a subcommand to assemble and write the target file:
  ciassemble                         # CI/gitlab-ci/ci-master.yml -> .gitlab-ci.yml
  ciassemble --dir CI/gitlab-ci      # explicit working directory
  ciassemble --json                  # machine-readable summary

Settings come from flags, CIASSEMBLE_* variables, and ciassemble.yaml in the
working directory, in that order of precedence.`,
		Version:       buildVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := output.ValidateColorMode(stringFlag(cmd, "color")); err != nil {
				newPrinter(cmd).Error(err)
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssemble(cmd)
		},
	}

	addPersistentFlags(cmd)

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "agent", Title: "Agent Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newCheckCmd(), "core")
	addGroupedCommand(cmd, newImportsCmd(), "core")
	addGroupedCommand(cmd, newWatchCmd(), "core")

	addGroupedCommand(cmd, newServeCmd(), "agent")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
