package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect what the agent has learned",
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show long-term memory statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemory()
		if err != nil {
			return err
		}
		return writeIndented(os.Stdout, store.Stats())
	},
}

var memoryFactsCmd = &cobra.Command{
	Use:   "facts [topic]",
	Short: "List learned facts, optionally filtered by topic",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemory()
		if err != nil {
			return err
		}
		var topic string
		if len(args) == 1 {
			topic = args[0]
		}
		facts := store.LearnedFacts(topic)
		if len(facts) == 0 {
			fmt.Println("No facts learned yet.")
			return nil
		}
		return writeIndented(os.Stdout, facts)
	},
}

var memoryPrefsCmd = &cobra.Command{
	Use:   "prefs [user]",
	Short: "Show personalized recommendations derived from a user's history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemory()
		if err != nil {
			return err
		}
		var user string
		if len(args) == 1 {
			user = args[0]
		}
		return writeIndented(os.Stdout, store.PersonalizedRecommendations(user))
	},
}

func init() {
	memoryCmd.AddCommand(memoryStatsCmd, memoryFactsCmd, memoryPrefsCmd)
	rootCmd.AddCommand(memoryCmd)
}

// openMemory reads the memory file without wiring the LLM and vector store.
func openMemory() (*memory.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return memory.Open(cfg.MemoryPath(), memory.WithLogger(logger)), nil
}
