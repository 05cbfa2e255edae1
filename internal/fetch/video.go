package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/cuzic/woc-download/internal/naming"
)

// VideoFetcher pulls subtitle tracks for streaming video pages via
// yt-dlp. The video itself is never downloaded, only manual and
// auto-generated subtitles in the configured languages.
type VideoFetcher struct {
	// SubtitleLangs lists the subtitle languages to request, e.g.
	// ["ja", "en"].
	SubtitleLangs []string
}

func (f *VideoFetcher) Fetch(ctx context.Context, url, outputPath string, _ naming.URLType) (*Result, error) {
	langs := strings.Join(f.SubtitleLangs, ",")
	if langs == "" {
		langs = "ja,en"
	}

	cmd := ytdlp.New().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(langs).
		SkipDownload().
		Output(outputPath + ".%(ext)s")

	if _, err := cmd.Run(ctx, url); err != nil {
		return nil, classifyVideoError(url, err)
	}

	path, size, err := newestProduced(outputPath)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, ByteSize: size}, nil
}

// permanentVideoMarkers match yt-dlp error text for conditions a retry
// cannot fix: gone, private or unsupported videos.
var permanentVideoMarkers = []string{
	"video unavailable",
	"private video",
	"no longer available",
	"404",
	"not found",
	"unsupported url",
	"is not a valid url",
	"removed by the uploader",
	"account associated with this video has been terminated",
}

// classifyVideoError sorts a yt-dlp failure into the retry taxonomy.
// Unrecognized errors stay transient; yt-dlp failures are most often
// network hiccups or rate limiting.
func classifyVideoError(url string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentVideoMarkers {
		if strings.Contains(msg, marker) {
			return Permanent(fmt.Errorf("yt-dlp %s: %w", url, err))
		}
	}
	return Transient(fmt.Errorf("yt-dlp %s: %w", url, err))
}

// newestProduced finds the largest file yt-dlp wrote under the output
// stem. The extension is chosen by yt-dlp, so the exact name is not
// known up front.
func newestProduced(stem string) (string, int64, error) {
	dir := filepath.Dir(stem)
	base := filepath.Base(stem) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, Permanent(err)
	}

	var bestPath string
	var bestSize int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if bestPath == "" || info.Size() > bestSize {
			bestPath = filepath.Join(dir, entry.Name())
			bestSize = info.Size()
		}
	}
	if bestPath == "" {
		return "", 0, Permanentf("no subtitles available for %s", stem)
	}
	return bestPath, bestSize, nil
}
