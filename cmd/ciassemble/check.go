package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gorewood/ciassemble/internal/generate"
	"github.com/gorewood/ciassemble/internal/output"
)

// newCheckCmd creates the check command.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the generated file matches its templates",
		Long: `Assemble the master template in memory and compare the result with the
target file on disk. Nothing is written.

Exits 0 when the target is up to date and 3 when it is missing or differs,
printing a line diff (current -, assembled +) and both BLAKE3 digests.
Use it in CI to catch hand edits and forgotten regenerations.

Examples:
  ciassemble check          # Human-readable report
  ciassemble check --json   # Digests and diff as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd)
		},
	}
}

// runCheck executes the check command.
func runCheck(cmd *cobra.Command) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	out, err := generate.Render(cfg)
	if err != nil {
		err = exitErrorFor(err)
		printer.Error(err)
		return err
	}

	drift, err := generate.Check(out)
	if err != nil {
		err = output.NewSystemErrorWithCause(err.Error(), err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		if err := printer.WriteJSON(checkResult{Target: out.Target, Drift: drift}); err != nil {
			return err
		}
		return driftError(out, drift)
	}

	printHumanCheck(printer, out, drift)
	if err := driftError(out, drift); err != nil {
		printer.Error(err)
		return err
	}
	return nil
}

// checkResult is the JSON output of the check command.
type checkResult struct {
	Target string `json:"target"`
	*generate.Drift
}

// driftError returns a conflict error unless the target is up to date.
func driftError(out *generate.Output, drift *generate.Drift) error {
	name := filepath.Base(out.Target)
	switch {
	case drift.UpToDate:
		return nil
	case drift.Missing:
		return output.NewConflictError(fmt.Sprintf("%s does not exist; run ciassemble to generate it", name))
	default:
		return output.NewConflictError(fmt.Sprintf("%s is out of date; run ciassemble to regenerate it", name))
	}
}

// printHumanCheck renders the drift report.
func printHumanCheck(printer *output.Printer, out *generate.Output, drift *generate.Drift) {
	if drift.UpToDate {
		_ = printer.Success(map[string]any{"message": out.Target + " is up to date"})
		printer.KeyValue("digest", drift.WantDigest)
		return
	}

	if drift.Diff != "" {
		printer.Section("Diff (current -, assembled +)")
		printer.Diff(drift.Diff)
	}

	printer.Section("Digests")
	if drift.CurrentDigest != "" {
		printer.KeyValue("current", drift.CurrentDigest)
	} else {
		printer.KeyValue("current", "(missing)")
	}
	printer.KeyValue("assembled", drift.WantDigest)
}
