package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jparise/gh-search/internal/timeparse"
)

var (
	historySince string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	Long: `History lists your recent searches, newest first.

Examples:
  gh search history
  gh search history --since 1w
  gh search history clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete your search history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "",
		"only show searches newer than a duration (e.g., 1d, 2w)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "L", 50,
		"maximum number of searches to show (0 for all)")
	historyCmd.AddCommand(historyClearCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	var since time.Time
	if historySince != "" {
		d, err := timeparse.ParseDuration(historySince)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		since = time.Now().Add(-d)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.History().List(cmd.Context(), localUserID(), since, historyLimit)
	if err != nil {
		return err
	}

	output := newOutput(cmd)
	if len(entries) == 0 {
		output.Infof("No searches found")
		return nil
	}
	for _, e := range entries {
		output.HistoryEntry(e)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.History().Clear(cmd.Context(), localUserID())
	if err != nil {
		return err
	}

	newOutput(cmd).Infof("Deleted %d searches", n)
	return nil
}
