package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/metrics"
	"github.com/cuzic/woc-download/internal/runner"
	"github.com/cuzic/woc-download/internal/task"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-attempt every failed download",
	Long: `Re-run every download recorded as failed. The original sheets are
not needed: targets are rebuilt from the failure records themselves.`,
	Args: cobra.NoArgs,
	RunE: runRetry,
}

func init() {
	f := retryCmd.Flags()
	f.BoolVar(&flagNoDedup, "no-dedup", false, "disable URL deduplication")
	f.IntVar(&flagParallel, "parallel", 0, "number of concurrent downloads")
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagNoDedup {
		cfg.Dedup.Enabled = false
	}
	if flagParallel > 0 {
		cfg.Parallel = flagParallel
	}
	log := logging.Component("retry")

	metrics.Init("")

	completion, err := openCompletionStore(cfg, logging.Component("state"))
	if err != nil {
		return err
	}
	exec := &runner.Executor{
		Completion: completion,
		Fetcher:    buildFetcher(cfg),
		Log:        logging.Component("executor"),
	}
	if cfg.Dedup.Enabled {
		exec.Dedup, err = openDedupStore(cfg, logging.Component("dedup"))
		if err != nil {
			return err
		}
	}

	r := &runner.Runner{
		Executor:  exec,
		Generator: task.NewGenerator(cfg.DownloadDir),
		Parallel:  cfg.Parallel,
		Log:       log,
	}
	report, err := r.RetryFailed(cmd.Context())
	if report != nil {
		fmt.Print(report.Summary())
	}
	return err
}
