package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show agent capabilities, state and knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.Close()

		return writeIndented(os.Stdout, map[string]any{
			"agent":     rt.agent.Info(),
			"knowledge": rt.base.Stats(rt.cfg.Collection),
			"memory":    rt.agent.MemoryStats(),
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
