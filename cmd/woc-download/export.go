package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuzic/woc-download/internal/export"
	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/mirror"
)

var exportCmd = &cobra.Command{
	Use:   "export <output.parquet>",
	Short: "Export the completion ledger as parquet",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	completion, err := openCompletionStore(cfg, logging.Component("state"))
	if err != nil {
		return err
	}

	n, err := export.WriteParquet(completion.Records(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("exported %d records to %s\n", n, args[0])
	return nil
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Upload the download directory to the configured bucket",
	Args:  cobra.NoArgs,
	RunE:  runMirror,
}

var flagBucketURL string

func init() {
	mirrorCmd.Flags().StringVar(&flagBucketURL, "bucket", "", "bucket URL (gs://..., s3://..., file:///...)")
	rootCmd.AddCommand(mirrorCmd)
}

func runMirror(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagBucketURL != "" {
		cfg.Mirror.BucketURL = flagBucketURL
	}
	if cfg.Mirror.BucketURL == "" {
		return fmt.Errorf("no mirror bucket configured (use --bucket or mirror.bucket_url)")
	}

	ctx := cmd.Context()
	m, err := mirror.Open(ctx, cfg.Mirror.BucketURL, cfg.Mirror.Prefix, logging.Component("mirror"))
	if err != nil {
		return err
	}
	defer m.Close()

	stats, err := m.Sync(ctx, cfg.DownloadDir)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %d files (%d bytes), %d already current\n",
		stats.Uploaded, stats.UploadedBytes, stats.Skipped)
	return nil
}
