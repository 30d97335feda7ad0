package cmd

import (
	"github.com/huangsam/perfhist/core"
	"github.com/huangsam/perfhist/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [data-dir]",
	Short: "Start the perfhist MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents query runs, boundaries and summaries of a data directory.`,
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		// Stdio carries the protocol, so keep headers off stdout
		return mcp.StartMCPServer(core.WithSuppressHeader(rootCtx), cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
