// Package config loads downloader configuration from YAML with
// environment-variable fallbacks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/metrics"
)

// DedupMode controls how duplicate URLs are materialized on disk.
const (
	DedupModeSymlink   = "symlink"
	DedupModeCopy      = "copy"
	DedupModeReference = "reference"
)

// Config is the top-level downloader configuration.
type Config struct {
	DownloadDir string `yaml:"download_dir"`
	StateDir    string `yaml:"state_dir"`

	Dedup   DedupConfig    `yaml:"dedup"`
	Retry   RetryConfig    `yaml:"retry"`
	Fetch   FetchConfig    `yaml:"fetch"`
	Mirror  MirrorConfig   `yaml:"mirror"`
	Logging logging.Config `yaml:"logging"`
	Metrics metrics.Config `yaml:"metrics"`

	// Parallel is the number of concurrent fetches. 1 reproduces the
	// reference sequential behavior.
	Parallel int `yaml:"parallel"`
}

// DedupConfig configures the URL dedup store.
type DedupConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // symlink | copy | reference
}

// RetryConfig bounds fetch retries for transient errors.
type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"`
	BaseDelaySec float64 `yaml:"base_delay_sec"`
	MaxDelaySec  float64 `yaml:"max_delay_sec"`
}

// FetchConfig tunes the fetch capability.
type FetchConfig struct {
	HTTPTimeoutSec int      `yaml:"http_timeout_sec"`
	UserAgent      string   `yaml:"user_agent"`
	SubtitleLangs  []string `yaml:"subtitle_langs"`
}

// MirrorConfig configures optional post-run artifact mirroring.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BucketURL string `yaml:"bucket_url"` // file:///..., gs://..., s3://...
	Prefix    string `yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	downloadDir := getenvDefault("WOC_DOWNLOAD_DIR", "downloads")
	return Config{
		DownloadDir: downloadDir,
		StateDir:    getenvDefault("WOC_STATE_DIR", filepath.Join(downloadDir, ".download_state")),
		Dedup: DedupConfig{
			Enabled: true,
			Mode:    DedupModeSymlink,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelaySec: 1,
			MaxDelaySec:  10,
		},
		Fetch: FetchConfig{
			HTTPTimeoutSec: parseIntEnv("WOC_HTTP_TIMEOUT_SEC", 300),
			UserAgent:      "woc-download/1.0",
			SubtitleLangs:  []string{"ja", "en"},
		},
		Logging: logging.Config{
			Format: getenvDefault("WOC_LOG_FORMAT", "text"),
			Level:  getenvDefault("WOC_LOG_LEVEL", "info"),
		},
		Metrics: metrics.Config{
			Enabled: os.Getenv("WOC_METRICS_ADDR") != "",
			Address: os.Getenv("WOC_METRICS_ADDR"),
		},
		Parallel: 1,
	}
}

// Load returns the defaults merged with the YAML file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the rest of the system cannot honor.
func (c Config) Validate() error {
	switch c.Dedup.Mode {
	case DedupModeSymlink, DedupModeCopy, DedupModeReference:
	default:
		return fmt.Errorf("invalid dedup mode %q", c.Dedup.Mode)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be >= 1, got %d", c.Parallel)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
