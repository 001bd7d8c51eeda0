package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/output"
)

// newImportsCmd creates the imports command.
func newImportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports",
		Short: "Show the import tree of the master template",
		Long: `Assemble the master template in memory and list every import it expands,
in the order the directives are encountered. Nothing is written.

Examples:
  ciassemble imports          # Indented tree with line counts
  ciassemble imports --json   # Import records as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImports(cmd)
		},
	}
}

// importsResult is the JSON output of the imports command.
type importsResult struct {
	Master  string            `json:"master"`
	Lines   int               `json:"lines"`
	Imports []assemble.Import `json:"imports"`
}

// runImports executes the imports command.
func runImports(cmd *cobra.Command) error {
	printer := newPrinter(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	result, err := cfg.Assembler().Assemble(cfg.MasterName())
	if err != nil {
		err = exitErrorFor(err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		imports := result.Imports
		if imports == nil {
			imports = []assemble.Import{}
		}
		return printer.WriteJSON(importsResult{
			Master:  result.Master,
			Lines:   len(result.Lines),
			Imports: imports,
		})
	}

	printImportTree(printer, result)
	return nil
}

// printImportTree renders the imports as an indented table.
func printImportTree(printer *output.Printer, result *assemble.Result) {
	rows := [][]string{{result.Master, "", strconv.Itoa(len(result.Lines))}}
	for _, imp := range result.Imports {
		rows = append(rows, []string{
			strings.Repeat("  ", imp.Level) + imp.Name,
			imp.Parent,
			strconv.Itoa(imp.Lines),
		})
	}
	printer.Table([]string{"FILE", "IMPORTED BY", "LINES"}, rows)
}
