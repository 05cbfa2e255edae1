// Package task defines download tasks and generates them from sheet rows.
package task

import "github.com/cuzic/woc-download/internal/naming"

// Task is one fetchable URL cell: ephemeral, produced by the Generator
// and consumed exactly once by the execution policy.
type Task struct {
	URL        string         `json:"url"`
	TargetPath string         `json:"target_path"`
	SheetName  string         `json:"sheet_name"`
	RowIndex   int            `json:"row_index"`
	ColumnName string         `json:"column_name"`
	URLType    naming.URLType `json:"url_type"`
}

// Result is the outcome of executing one task. Exactly one of
// {fresh success, Skipped, Deduped, failure} holds: Skipped and Deduped
// imply Success, and a failure carries Error with no ProducedPath.
type Result struct {
	Success      bool   `json:"success"`
	ProducedPath string `json:"produced_path,omitempty"`
	ByteSize     int64  `json:"byte_size,omitempty"`
	Error        string `json:"error,omitempty"`
	Skipped      bool   `json:"skipped,omitempty"`
	Deduped      bool   `json:"deduped,omitempty"`
	OriginalPath string `json:"original_path,omitempty"`
}

// Failed reports whether the task ended in failure.
func (r Result) Failed() bool {
	return !r.Success
}
