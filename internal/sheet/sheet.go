// Package sheet defines the row-source contract the task generator
// consumes, plus the per-sheet column schemas.
package sheet

import "github.com/cuzic/woc-download/internal/naming"

// Row maps column names to cell values. Missing columns read as "".
type Row map[string]string

// Get returns the cell value for a column, or "" when absent.
func (r Row) Get(column string) string {
	return r[column]
}

// Source yields ordered rows per sheet. Implementations own the
// spreadsheet-format details; the core only consumes this contract.
type Source interface {
	// SheetNames returns the sheets in processing order.
	SheetNames() ([]string, error)

	// Rows returns the ordered rows of one sheet.
	Rows(sheetName string) ([]Row, error)
}

// contentURLColumns are the URL-bearing columns of the content sheet.
var contentURLColumns = []string{
	"動画リンク",
	"動画DLリンク",
	"資料1",
	"資料2",
}

// lectureURLColumns are the URL-bearing columns of every other sheet
// (lecture recordings, group consulting, camps).
var lectureURLColumns = []string{
	"録画（動画視聴リンク）",
	"録画（動画DLリンク）",
	"資料1",
	"資料2",
	"資料3",
	"資料4",
}

// URLColumns returns the ordered URL-bearing columns for a sheet.
func URLColumns(sheetName string) []string {
	if sheetName == naming.ContentSheetName {
		return contentURLColumns
	}
	return lectureURLColumns
}

// InheritedColumns are the fields subject to carry-forward inheritance:
// a row missing one inherits the nearest prior non-empty value.
var InheritedColumns = []string{"実施年", "実施日"}
