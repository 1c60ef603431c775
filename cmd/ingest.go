package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load game JSON files into the local game database",
	Long: `Indexes every game JSON file in dir (default: games_dir from the config)
into the persistent vector store. Invalid files are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	dir := cfg.GamesDir
	if len(args) == 1 {
		dir = args[0]
	}

	base, err := openKnowledge(cfg, logger)
	if err != nil {
		return err
	}

	report, err := base.LoadGames(cmd.Context(), dir, progress.NewReporter(os.Stderr))
	if err != nil {
		return fmt.Errorf("loading games from %s: %w", dir, err)
	}

	fmt.Printf("Loaded %d games from %s\n", report.Loaded, dir)
	for _, s := range report.Skipped {
		fmt.Printf("  skipped %s: %v\n", s.Path, s.Err)
	}
	stats := base.Stats(cfg.Collection)
	fmt.Printf("Collection %q now holds %d documents\n", stats.Collection, stats.TotalDocuments)
	return nil
}
