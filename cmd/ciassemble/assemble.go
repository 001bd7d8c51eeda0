package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/config"
	"github.com/gorewood/ciassemble/internal/generate"
	"github.com/gorewood/ciassemble/internal/output"
)

// runAssemble executes the root command: assemble the master template and
// write the target file.
func runAssemble(cmd *cobra.Command) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	out, err := assembleAndWrite(printer, cfg)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.Success(assembleSummary(out))
	}
	return printer.Success(map[string]any{"message": "Finished."})
}

// assembleAndWrite renders cfg and replaces the target, reporting progress
// through printer. Nothing is written unless assembly succeeds completely.
func assembleAndWrite(printer *output.Printer, cfg config.Config) (*generate.Output, error) {
	printer.Progress("Starting config assembly")

	out, err := generate.Render(cfg, assemble.WithImportHook(func(imp assemble.Import) {
		printer.Progress("Importing file: %s", imp.Name)
	}))
	if err != nil {
		return nil, exitErrorFor(err)
	}

	printer.Progress("Writing config to file %s", out.Target)
	if err := generate.Write(out); err != nil {
		return nil, output.NewSystemErrorWithCause(err.Error(), err)
	}
	return out, nil
}

// assembleSummary is the JSON result of a successful assembly.
func assembleSummary(out *generate.Output) map[string]any {
	return map[string]any{
		"target":  out.Target,
		"master":  out.Result.Master,
		"digest":  out.Digest,
		"lines":   len(out.Result.Lines),
		"imports": out.Result.Imports,
	}
}
