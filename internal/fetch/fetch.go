// Package fetch downloads a single task target to disk. Video URLs go
// through yt-dlp in subtitle mode, everything else through direct HTTP
// with provider-specific export URL rewriting.
package fetch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cuzic/woc-download/internal/naming"
)

// Result describes what a fetch produced on disk.
type Result struct {
	// Path is the file actually written. Video fetches may produce a
	// different extension than the requested target.
	Path string

	// ByteSize is the size of the produced file.
	ByteSize int64
}

// Fetcher retrieves one URL into outputPath (extension may be adjusted
// by the fetcher).
type Fetcher interface {
	Fetch(ctx context.Context, url, outputPath string, kind naming.URLType) (*Result, error)
}

// Dispatcher routes tasks to the video or document fetcher by URL type.
type Dispatcher struct {
	video    Fetcher
	document Fetcher
}

// NewDispatcher wires the default fetchers from cfg-derived parts.
func NewDispatcher(video, document Fetcher) *Dispatcher {
	return &Dispatcher{video: video, document: document}
}

func (d *Dispatcher) Fetch(ctx context.Context, url, outputPath string, kind naming.URLType) (*Result, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, Permanent(err)
	}
	if kind.IsVideo() {
		return d.video.Fetch(ctx, url, outputPath, kind)
	}
	return d.document.Fetch(ctx, url, outputPath, kind)
}

// DryRunFetcher logs what would be fetched without touching the network
// or the filesystem.
type DryRunFetcher struct {
	Log *slog.Logger
}

func (f *DryRunFetcher) Fetch(_ context.Context, url, outputPath string, kind naming.URLType) (*Result, error) {
	f.Log.Info("dry run, skipping fetch",
		"url", url,
		"target", outputPath,
		"kind", string(kind))
	return &Result{Path: outputPath, ByteSize: 0}, nil
}
