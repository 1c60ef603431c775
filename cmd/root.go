package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "udaplay",
	Short: "AI research agent for video game questions",
	Long: `UdaPlay answers questions about video games from a local semantic game
database, searching the web when local knowledge is not enough. It learns
from every web search and conversation, and can recommend games, analyze
trends and classify review sentiment.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
