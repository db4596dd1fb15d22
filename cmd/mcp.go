package cmd

import (
	"github.com/bobbycyl/osuawa/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the osuawa MCP server",
	Long: `Launch an MCP server on stdio so AI agents can sync, look up and summarize scores via standard tools.

Progress headers are suppressed since stdio carries the protocol.`,
	PreRunE: completionSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, deps)
	},
}
