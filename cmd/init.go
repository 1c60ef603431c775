package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize udaplay configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the LLM provider, data directory and web search, and writes the answers to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
