package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	ciamcp "github.com/gorewood/ciassemble/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run ciassemble as a Model Context Protocol (MCP) server over stdio.

Configuration is resolved once at startup from the same flags, environment
and ciassemble.yaml as the other commands; each tool call re-reads the
templates.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "ciassemble": {
        "command": "ciassemble",
        "args": ["serve", "--dir", "CI/gitlab-ci"]
      }
    }
  }

Available tools: assemble, check, imports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				newPrinter(cmd).Error(err)
				return err
			}
			server := ciamcp.NewServer(buildVersion(), cfg)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
