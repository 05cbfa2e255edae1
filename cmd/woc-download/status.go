package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cuzic/woc-download/internal/logging"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show download progress and failures",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var flagShowFailed bool

func init() {
	statusCmd.Flags().BoolVar(&flagShowFailed, "failed", false, "list each failed download")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	completion, err := openCompletionStore(cfg, logging.Component("state"))
	if err != nil {
		return err
	}

	stats := completion.Statistics()
	fmt.Printf("downloads: %d total, %d completed, %d failed, %d in progress\n",
		stats.Total, stats.Completed, stats.Failed, stats.InProgress)

	if flagShowFailed {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, rec := range completion.FailedRecords() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", rec.URL, rec.TargetPath, rec.Error)
		}
		w.Flush()
	}
	return nil
}

var dedupStatsCmd = &cobra.Command{
	Use:   "dedup-stats",
	Short: "Show URL dedup statistics",
	Args:  cobra.NoArgs,
	RunE:  runDedupStats,
}

var flagTopN int

func init() {
	dedupStatsCmd.Flags().IntVar(&flagTopN, "top", 10, "number of most-duplicated URLs to list")
	rootCmd.AddCommand(dedupStatsCmd)
}

func runDedupStats(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openDedupStore(cfg, logging.Component("dedup"))
	if err != nil {
		return err
	}

	stats := store.Statistics()
	fmt.Printf("unique URLs: %d\n", stats.UniqueURLs)
	fmt.Printf("references:  %d\n", stats.TotalReferences)
	fmt.Printf("space saved: %d bytes\n", stats.SpaceSavedBytes)

	top := store.TopDuplicates(flagTopN)
	if len(top) == 0 {
		return nil
	}
	fmt.Println("\nmost duplicated:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, d := range top {
		fmt.Fprintf(w, "%d\t%s\n", d.References, d.URL)
	}
	return w.Flush()
}
