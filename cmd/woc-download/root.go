package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cuzic/woc-download/internal/config"
	"github.com/cuzic/woc-download/internal/dedup"
	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/state"
)

var (
	flagConfig      string
	flagDownloadDir string
	flagStateDir    string
	flagLogLevel    string
	flagLogFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "woc-download",
	Short: "Spreadsheet-driven bulk downloader with resume and URL dedup",
	Long: `woc-download turns spreadsheet rows full of video and document links
into an organized download directory. Completed downloads are recorded
and skipped on the next run, and URLs that appear more than once are
downloaded a single time and linked everywhere else.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	pf.StringVar(&flagDownloadDir, "download-dir", "", "root directory for downloads")
	pf.StringVar(&flagStateDir, "state-dir", "", "directory for state documents")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format (text|json)")
}

// loadConfig merges defaults, the optional config file and the global
// flag overrides, then installs the logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDownloadDir != "" {
		cfg.DownloadDir = flagDownloadDir
		if flagStateDir == "" {
			cfg.StateDir = filepath.Join(cfg.DownloadDir, ".download_state")
		}
	}
	if flagStateDir != "" {
		cfg.StateDir = flagStateDir
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Logging.Format = flagLogFormat
	}

	logging.Setup(cfg.Logging)
	return cfg, cfg.Validate()
}

func openCompletionStore(cfg config.Config, log *slog.Logger) (*state.Store, error) {
	return state.NewStore(filepath.Join(cfg.StateDir, "download_db.json"), log)
}

func openDedupStore(cfg config.Config, log *slog.Logger) (*dedup.Store, error) {
	return dedup.NewStore(filepath.Join(cfg.StateDir, "url_dedup.json"), cfg.Dedup.Mode, log)
}
