package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuzic/woc-download/internal/config"
	"github.com/cuzic/woc-download/internal/fetch"
	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/metrics"
	"github.com/cuzic/woc-download/internal/mirror"
	"github.com/cuzic/woc-download/internal/runner"
	"github.com/cuzic/woc-download/internal/sheet"
	"github.com/cuzic/woc-download/internal/task"
)

var (
	flagDryRun    bool
	flagOverwrite bool
	flagNoDedup   bool
	flagDedupMode string
	flagSheets    []string
	flagParallel  int
)

var runCmd = &cobra.Command{
	Use:   "run <sheets-dir>",
	Short: "Download everything referenced by the sheets",
	Long: `Scan every sheet in the given directory (one CSV file per sheet),
generate download tasks for each URL cell and execute them. Finished
downloads are skipped, duplicate URLs are linked to the first copy.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&flagDryRun, "dry-run", false, "log planned downloads without fetching")
	f.BoolVar(&flagOverwrite, "overwrite", false, "re-download even if already completed")
	f.BoolVar(&flagNoDedup, "no-dedup", false, "disable URL deduplication")
	f.StringVar(&flagDedupMode, "dedup-mode", "", "dedup link mode (symlink|copy|reference)")
	f.StringSliceVar(&flagSheets, "sheet", nil, "only process the named sheets (repeatable)")
	f.IntVar(&flagParallel, "parallel", 0, "number of concurrent downloads")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagNoDedup {
		cfg.Dedup.Enabled = false
	}
	if flagDedupMode != "" {
		cfg.Dedup.Mode = flagDedupMode
	}
	if flagParallel > 0 {
		cfg.Parallel = flagParallel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.Component("run")

	metrics.Init("")
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	r, err := buildRunner(cfg, args[0], log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	report, err := r.Run(ctx)
	if report != nil {
		fmt.Print(report.Summary())
	}
	if err != nil {
		return err
	}

	if cfg.Mirror.Enabled && !flagDryRun {
		if err := mirrorDownloads(ctx, cfg, log); err != nil {
			return err
		}
	}
	return nil
}

func buildRunner(cfg config.Config, sheetsDir string, log *slog.Logger) (*runner.Runner, error) {
	source, err := sheet.NewCSVDirSource(sheetsDir)
	if err != nil {
		return nil, err
	}

	completion, err := openCompletionStore(cfg, logging.Component("state"))
	if err != nil {
		return nil, err
	}

	exec := &runner.Executor{
		Completion: completion,
		Fetcher:    buildFetcher(cfg),
		Overwrite:  flagOverwrite,
		Log:        logging.Component("executor"),
	}
	if cfg.Dedup.Enabled {
		exec.Dedup, err = openDedupStore(cfg, logging.Component("dedup"))
		if err != nil {
			return nil, err
		}
	}

	return &runner.Runner{
		Source:    source,
		Generator: task.NewGenerator(cfg.DownloadDir),
		Executor:  exec,
		Sheets:    flagSheets,
		Parallel:  cfg.Parallel,
		Log:       log,
	}, nil
}

func buildFetcher(cfg config.Config) fetch.Fetcher {
	if flagDryRun {
		return fetch.NewDispatcher(
			&fetch.DryRunFetcher{Log: logging.Component("fetch")},
			&fetch.DryRunFetcher{Log: logging.Component("fetch")},
		)
	}

	client := fetch.NewClient(time.Duration(cfg.Fetch.HTTPTimeoutSec)*time.Second, cfg.Fetch.UserAgent)
	dispatcher := fetch.NewDispatcher(
		&fetch.VideoFetcher{SubtitleLangs: cfg.Fetch.SubtitleLangs},
		&fetch.DocumentFetcher{Client: client},
	)
	return &fetch.RetryingFetcher{
		Inner:       dispatcher,
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelaySec * float64(time.Second)),
		MaxDelay:    time.Duration(cfg.Retry.MaxDelaySec * float64(time.Second)),
		Log:         logging.Component("fetch"),
	}
}

func mirrorDownloads(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m, err := mirror.Open(ctx, cfg.Mirror.BucketURL, cfg.Mirror.Prefix, logging.Component("mirror"))
	if err != nil {
		return err
	}
	defer m.Close()

	stats, err := m.Sync(ctx, cfg.DownloadDir)
	if err != nil {
		return err
	}
	log.Info("mirror finished",
		"uploaded", stats.Uploaded,
		"uploaded_bytes", stats.UploadedBytes,
		"skipped", stats.Skipped)
	return nil
}
