// Package mcp exposes config assembly as Model Context Protocol tools.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/ciassemble/internal/config"
)

// NewServer creates an MCP server with all ciassemble tools registered.
// Every tool call assembles from cfg afresh.
func NewServer(version string, cfg config.Config) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ciassemble",
		Version: version,
	}, nil)
	registerTools(server, cfg)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for tools that never write.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for the assemble tool: it overwrites
// a generated file with content derived from the templates, so a repeated
// call with unchanged templates has no further effect.
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		IdempotentHint:  true,
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all ciassemble tools to the server.
func registerTools(server *mcp.Server, cfg config.Config) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "assemble",
		Description: "Assemble the CI config from its master template and write the target file. Set dry_run to render without writing.",
		Annotations: writeAnnotations(),
	}, handleAssemble(cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check",
		Description: "Report whether the generated CI config matches its templates, with digests and a line diff when it does not.",
		Annotations: readOnlyAnnotations(),
	}, handleCheck(cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "imports",
		Description: "List every import expanded while assembling the master template, in encounter order.",
		Annotations: readOnlyAnnotations(),
	}, handleImports(cfg))
}
