package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ciassemble/internal/assemble"
	"github.com/gorewood/ciassemble/internal/config"
	"github.com/gorewood/ciassemble/internal/generate"
)

// ImportRecord describes one expanded import directive.
type ImportRecord struct {
	Name   string `json:"name"   jsonschema:"imported file name"`
	Parent string `json:"parent" jsonschema:"file holding the directive"`
	Level  int    `json:"level"  jsonschema:"nesting level, 1 for imports in the master file"`
	Lines  int    `json:"lines"  jsonschema:"number of lines the import expanded to"`
}

func toImportRecords(imports []assemble.Import) []ImportRecord {
	records := make([]ImportRecord, 0, len(imports))
	for _, imp := range imports {
		records = append(records, ImportRecord(imp))
	}
	return records
}

// --- Assemble tool ---

// AssembleInput is the input for the assemble tool.
type AssembleInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"render the config without writing the target file"`
}

// AssembleOutput is the output for the assemble tool.
type AssembleOutput struct {
	Target  string         `json:"target"  jsonschema:"absolute path of the generated file"`
	Digest  string         `json:"digest"  jsonschema:"BLAKE3-256 digest of the generated content"`
	Lines   int            `json:"lines"   jsonschema:"number of assembled lines, banner excluded"`
	Written bool           `json:"written" jsonschema:"whether the target file was written"`
	Imports []ImportRecord `json:"imports" jsonschema:"imports expanded during assembly"`
}

func handleAssemble(cfg config.Config) mcp.ToolHandlerFor[AssembleInput, AssembleOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AssembleInput) (*mcp.CallToolResult, AssembleOutput, error) {
		out, err := generate.Render(cfg)
		if err != nil {
			return nil, AssembleOutput{}, fmt.Errorf("assembling %s: %w", cfg.Master, err)
		}

		if !input.DryRun {
			if err := generate.Write(out); err != nil {
				return nil, AssembleOutput{}, err
			}
		}

		return nil, AssembleOutput{
			Target:  out.Target,
			Digest:  out.Digest,
			Lines:   len(out.Result.Lines),
			Written: !input.DryRun,
			Imports: toImportRecords(out.Result.Imports),
		}, nil
	}
}

// --- Check tool ---

// CheckInput is the input for the check tool (no parameters needed).
type CheckInput struct{}

// CheckOutput is the output for the check tool.
type CheckOutput struct {
	Target        string `json:"target"                   jsonschema:"absolute path of the generated file"`
	UpToDate      bool   `json:"up_to_date"               jsonschema:"whether the file matches the templates"`
	Missing       bool   `json:"missing"                  jsonschema:"whether the file does not exist yet"`
	CurrentDigest string `json:"current_digest,omitempty" jsonschema:"BLAKE3-256 digest of the file on disk"`
	WantDigest    string `json:"want_digest"              jsonschema:"BLAKE3-256 digest of freshly assembled content"`
	Diff          string `json:"diff,omitempty"           jsonschema:"line diff, file on disk (-) against assembled (+)"`
}

func handleCheck(cfg config.Config) mcp.ToolHandlerFor[CheckInput, CheckOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ CheckInput) (*mcp.CallToolResult, CheckOutput, error) {
		out, err := generate.Render(cfg)
		if err != nil {
			return nil, CheckOutput{}, fmt.Errorf("assembling %s: %w", cfg.Master, err)
		}

		drift, err := generate.Check(out)
		if err != nil {
			return nil, CheckOutput{}, err
		}

		return nil, CheckOutput{
			Target:        out.Target,
			UpToDate:      drift.UpToDate,
			Missing:       drift.Missing,
			CurrentDigest: drift.CurrentDigest,
			WantDigest:    drift.WantDigest,
			Diff:          drift.Diff,
		}, nil
	}
}

// --- Imports tool ---

// ImportsInput is the input for the imports tool (no parameters needed).
type ImportsInput struct{}

// ImportsOutput is the output for the imports tool.
type ImportsOutput struct {
	Master  string         `json:"master"  jsonschema:"master template the assembly starts from"`
	Imports []ImportRecord `json:"imports" jsonschema:"imports in encounter order"`
}

func handleImports(cfg config.Config) mcp.ToolHandlerFor[ImportsInput, ImportsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ImportsInput) (*mcp.CallToolResult, ImportsOutput, error) {
		if err := cfg.Validate(); err != nil {
			return nil, ImportsOutput{}, err
		}
		result, err := cfg.Assembler().Assemble(cfg.MasterName())
		if err != nil {
			return nil, ImportsOutput{}, fmt.Errorf("assembling %s: %w", cfg.Master, err)
		}

		return nil, ImportsOutput{
			Master:  result.Master,
			Imports: toImportRecords(result.Imports),
		}, nil
	}
}
