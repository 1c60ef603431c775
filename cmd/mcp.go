package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/udaplay/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server over stdio",
	Long: `Exposes the agent as Model Context Protocol tools (ask_udaplay,
retrieve_game, recommendations, trends, sentiment and learned facts) over
stdio. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.Close()

		mcpserver.Version = Version
		return mcpserver.NewServer(rt.agent, rt.retriever).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
