// Package runner executes download tasks against the completion and
// dedup stores and coordinates full runs across sheets.
package runner

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuzic/woc-download/internal/dedup"
	"github.com/cuzic/woc-download/internal/fetch"
	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/metrics"
	"github.com/cuzic/woc-download/internal/state"
	"github.com/cuzic/woc-download/internal/task"
)

// Executor applies the per-task policy: skip if already completed, link
// if the URL is a known duplicate, otherwise fetch and record.
type Executor struct {
	Completion *state.Store
	// Dedup is nil when deduplication is disabled.
	Dedup     *dedup.Store
	Fetcher   fetch.Fetcher
	Overwrite bool
	Log       *slog.Logger
}

// Execute runs one task to its terminal result. A dedup link counts as
// success but deliberately writes no completion record: should the
// original ever vanish, the next run falls through to a real fetch.
func (e *Executor) Execute(ctx context.Context, t task.Task) task.Result {
	log := logging.TaskLogger(e.Log, t.SheetName, t.RowIndex, t.ColumnName)
	prov := state.Provenance{
		SheetName:  t.SheetName,
		RowIndex:   t.RowIndex,
		ColumnName: t.ColumnName,
	}

	if !e.Overwrite && e.Completion.IsCompleted(t.URL, t.TargetPath) {
		log.Debug("already downloaded, skipping", "url", t.URL)
		if m := metrics.Get(); m != nil {
			m.TasksSkipped.WithLabelValues(t.SheetName).Inc()
		}
		return task.Result{Success: true, Skipped: true}
	}

	if e.Dedup != nil {
		if result, ok := e.tryDedupLink(t, log); ok {
			return result
		}
	}

	start := time.Now()
	fetched, err := e.Fetcher.Fetch(ctx, t.URL, t.TargetPath, t.URLType)
	if err != nil {
		log.Error("fetch failed", "url", t.URL, "error", err)
		if markErr := e.Completion.MarkFailed(t.URL, t.TargetPath, err.Error(), prov); markErr != nil {
			log.Error("failed to record failure", "error", markErr)
		}
		if m := metrics.Get(); m != nil {
			m.TasksFailed.WithLabelValues(t.SheetName).Inc()
		}
		return task.Result{Error: err.Error()}
	}

	if err := e.Completion.MarkCompleted(t.URL, fetched.Path, fetched.ByteSize, prov); err != nil {
		log.Error("failed to record completion", "error", err)
	}
	if e.Dedup != nil && fetched.ByteSize > 0 {
		if err := e.Dedup.Register(t.URL, fetched.Path, fetched.ByteSize); err != nil {
			log.Warn("failed to register in dedup store", "error", err)
		}
	}

	if m := metrics.Get(); m != nil {
		m.TasksCompleted.WithLabelValues(t.SheetName).Inc()
		m.BytesDownloaded.WithLabelValues(t.SheetName).Add(float64(fetched.ByteSize))
		m.FetchDuration.WithLabelValues(string(t.URLType)).Observe(time.Since(start).Seconds())
	}
	log.Info("downloaded",
		"url", t.URL,
		"path", fetched.Path,
		"bytes", fetched.ByteSize,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return task.Result{Success: true, ProducedPath: fetched.Path, ByteSize: fetched.ByteSize}
}

// tryDedupLink links the task target to a previously downloaded original
// when the URL is a duplicate. A link failure is logged and reported as
// not-handled so the caller falls through to a normal fetch.
func (e *Executor) tryDedupLink(t task.Task, log *slog.Logger) (task.Result, bool) {
	dup, originalPath := e.Dedup.IsDuplicate(t.URL)
	if !dup {
		return task.Result{}, false
	}

	linkPath := linkTarget(t.TargetPath, originalPath)
	if err := e.Dedup.CreateLink(originalPath, linkPath); err != nil {
		log.Warn("dedup link failed, downloading instead",
			"url", t.URL,
			"original", originalPath,
			"error", err)
		return task.Result{}, false
	}
	if _, err := e.Dedup.AddReference(t.URL, linkPath); err != nil {
		log.Warn("failed to record dedup reference", "error", err)
	}
	if m := metrics.Get(); m != nil {
		m.TasksDeduped.WithLabelValues(t.SheetName).Inc()
		m.DedupLinksCreated.WithLabelValues(e.Dedup.Mode()).Inc()
	}
	log.Info("linked to existing download", "url", t.URL, "original", originalPath)
	return task.Result{
		Success:      true,
		Deduped:      true,
		ProducedPath: linkPath,
		OriginalPath: originalPath,
	}, true
}

// linkTarget carries the original's extension over to the link so a
// linked subtitle or exported PDF keeps a meaningful suffix.
func linkTarget(targetPath, originalPath string) string {
	ext := filepath.Ext(originalPath)
	if ext == "" || strings.HasSuffix(targetPath, ext) {
		return targetPath
	}
	return targetPath + ext
}
