package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/db"
	"github.com/ziadkadry99/udaplay/internal/history"
)

var (
	historyUser      string
	historyMethod    string
	historyLimit     int
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the log of answered questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		entries, err := store.Query(cmd.Context(), history.QueryFilter{
			UserID:       historyUser,
			SearchMethod: historyMethod,
			Limit:        historyLimit,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No queries recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tUSER\tMETHOD\tCONFIDENCE\tQUESTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
				e.Timestamp.Local().Format(time.DateTime), e.UserID, e.SearchMethod, e.Confidence, e.Question)
		}
		return tw.Flush()
	},
}

var historySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize answered questions by search method",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		sum, err := store.Summarize(cmd.Context(), history.QueryFilter{UserID: historyUser})
		if err != nil {
			return err
		}
		return writeIndented(os.Stdout, sum)
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete history entries older than a duration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := store.DeleteBefore(cmd.Context(), time.Now().Add(-historyOlderThan))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries\n", n)
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyUser, "user", "", "only show this user's queries")
	historyCmd.Flags().StringVar(&historyMethod, "method", "", "only show queries answered by this search method")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to show")
	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "delete entries older than this (e.g. 720h)")
	historyCmd.AddCommand(historySummaryCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.HistoryPath())
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(database), database.Close, nil
}
