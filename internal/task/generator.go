package task

import (
	"path/filepath"
	"strings"

	"github.com/cuzic/woc-download/internal/naming"
	"github.com/cuzic/woc-download/internal/sheet"
)

// Generator turns sheet rows into download tasks.
type Generator struct {
	downloadDir string
}

// NewGenerator creates a Generator writing under downloadDir.
func NewGenerator(downloadDir string) *Generator {
	return &Generator{downloadDir: downloadDir}
}

// GenerateSheet produces the ordered tasks of one sheet. Carry-forward
// inheritance is applied first: a row with an empty 実施年 or 実施日
// inherits the nearest prior non-empty value, modeling merged cells.
func (g *Generator) GenerateSheet(sheetName string, rows []sheet.Row) []Task {
	inherited := make(map[string]string, len(sheet.InheritedColumns))

	var tasks []Task
	for index, row := range rows {
		for _, column := range sheet.InheritedColumns {
			value := strings.TrimSpace(row.Get(column))
			if value != "" && value != "nan" {
				inherited[column] = value
			} else if prev, ok := inherited[column]; ok {
				row[column] = prev
			}
		}

		tasks = append(tasks, g.generateRow(sheetName, index, row)...)
	}
	return tasks
}

// generateRow emits one task per URL-bearing cell of the row.
func (g *Generator) generateRow(sheetName string, rowIndex int, row sheet.Row) []Task {
	var tasks []Task
	for _, column := range sheet.URLColumns(sheetName) {
		url := strings.TrimSpace(row.Get(column))
		if !isURLCell(url) {
			continue
		}

		filename := naming.GenerateFilename(sheetName, row, column)
		tasks = append(tasks, Task{
			URL:        url,
			TargetPath: filepath.Join(g.downloadDir, sheetName, filename),
			SheetName:  sheetName,
			RowIndex:   rowIndex,
			ColumnName: column,
			URLType:    naming.DetectURLType(url),
		})
	}
	return tasks
}

// isURLCell rejects empty cells and the "-" placeholder used for
// intentionally blank spreadsheet fields.
func isURLCell(value string) bool {
	return value != "" && value != "-"
}
