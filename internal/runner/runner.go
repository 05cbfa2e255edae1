package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cuzic/woc-download/internal/logging"
	"github.com/cuzic/woc-download/internal/metrics"
	"github.com/cuzic/woc-download/internal/naming"
	"github.com/cuzic/woc-download/internal/sheet"
	"github.com/cuzic/woc-download/internal/task"
)

// Runner walks sheets, generates tasks and drives them through the
// executor, optionally in parallel.
type Runner struct {
	Source    sheet.Source
	Generator *task.Generator
	Executor  *Executor
	// Sheets restricts the run to the named sheets; empty means all.
	Sheets []string
	// Parallel is the number of concurrent task workers. Values below 1
	// are treated as 1.
	Parallel int
	Log      *slog.Logger
}

// Run executes one full pass over the selected sheets. Individual task
// failures are tallied, not fatal; only failure to read the sheet
// source aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	names, err := r.Source.SheetNames()
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}
	names = r.filterSheets(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no sheets selected")
	}

	report := &Report{}
	for _, name := range names {
		log := logging.SheetLogger(r.Log, name)
		rows, err := r.Source.Rows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", name, err)
		}

		tasks := r.Generator.GenerateSheet(name, rows)
		log.Info("sheet scanned", "rows", len(rows), "tasks", len(tasks))

		sheetReport := r.executeAll(ctx, name, tasks)
		report.Sheets = append(report.Sheets, sheetReport)

		if ctx.Err() != nil {
			break
		}
	}

	report.Elapsed = time.Since(start)
	if m := metrics.Get(); m != nil {
		m.MarkRunFinished()
	}
	return report, ctx.Err()
}

// RetryFailed re-executes every failed completion record, bypassing
// task generation so a retry does not need the original sheets.
func (r *Runner) RetryFailed(ctx context.Context) (*Report, error) {
	start := time.Now()

	failed := r.Executor.Completion.FailedRecords()
	if len(failed) == 0 {
		r.Log.Info("no failed downloads to retry")
		return &Report{Elapsed: time.Since(start)}, nil
	}

	bySheet := make(map[string][]task.Task)
	for _, rec := range failed {
		t := task.Task{
			URL:        rec.URL,
			TargetPath: rec.TargetPath,
			SheetName:  rec.Provenance.SheetName,
			RowIndex:   rec.Provenance.RowIndex,
			ColumnName: rec.Provenance.ColumnName,
			URLType:    naming.DetectURLType(rec.URL),
		}
		bySheet[t.SheetName] = append(bySheet[t.SheetName], t)
	}

	names := make([]string, 0, len(bySheet))
	for name := range bySheet {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &Report{}
	for _, name := range names {
		report.Sheets = append(report.Sheets, r.executeAll(ctx, name, bySheet[name]))
		if ctx.Err() != nil {
			break
		}
	}
	report.Elapsed = time.Since(start)
	return report, ctx.Err()
}

// executeAll runs one sheet's tasks, fanning out across workers when
// Parallel exceeds one. Stores are safe for concurrent use.
func (r *Runner) executeAll(ctx context.Context, sheetName string, tasks []task.Task) SheetReport {
	report := SheetReport{SheetName: sheetName, Total: len(tasks)}

	workers := r.Parallel
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range tasks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			result := r.Executor.Execute(gctx, t)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case result.Failed():
				report.Failed++
			case result.Skipped:
				report.Skipped++
			case result.Deduped:
				report.Deduped++
			default:
				report.Completed++
			}
			return nil
		})
	}
	g.Wait()
	return report
}

func (r *Runner) filterSheets(names []string) []string {
	if len(r.Sheets) == 0 {
		return names
	}
	wanted := make(map[string]bool, len(r.Sheets))
	for _, name := range r.Sheets {
		wanted[name] = true
	}
	var out []string
	for _, name := range names {
		if wanted[name] {
			out = append(out, name)
		}
	}
	return out
}
