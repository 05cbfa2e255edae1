package runner

import (
	"fmt"
	"strings"
	"time"
)

// SheetReport tallies task outcomes for one sheet.
type SheetReport struct {
	SheetName string `json:"sheet_name"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Skipped   int    `json:"skipped"`
	Deduped   int    `json:"deduped"`
	Failed    int    `json:"failed"`
}

// Report aggregates a whole run.
type Report struct {
	Sheets  []SheetReport `json:"sheets"`
	Elapsed time.Duration `json:"elapsed"`
}

func (r *Report) Totals() SheetReport {
	total := SheetReport{SheetName: "total"}
	for _, s := range r.Sheets {
		total.Total += s.Total
		total.Completed += s.Completed
		total.Skipped += s.Skipped
		total.Deduped += s.Deduped
		total.Failed += s.Failed
	}
	return total
}

// Summary renders the report as a human-readable table.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-30s %6s %10s %8s %8s %7s\n",
		"SHEET", "TOTAL", "COMPLETED", "SKIPPED", "DEDUPED", "FAILED")
	for _, s := range r.Sheets {
		fmt.Fprintf(&b, "%-30s %6d %10d %8d %8d %7d\n",
			s.SheetName, s.Total, s.Completed, s.Skipped, s.Deduped, s.Failed)
	}
	t := r.Totals()
	fmt.Fprintf(&b, "%-30s %6d %10d %8d %8d %7d\n",
		t.SheetName, t.Total, t.Completed, t.Skipped, t.Deduped, t.Failed)
	fmt.Fprintf(&b, "elapsed: %s\n", r.Elapsed.Round(time.Millisecond))
	return b.String()
}
