package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CSVDirSource reads one sheet per CSV file from a directory. The file
// base name is the sheet name and the first record is the header row.
// Sheets are processed in lexical file-name order.
type CSVDirSource struct {
	dir string
}

// NewCSVDirSource creates a source over a directory of CSV files.
func NewCSVDirSource(dir string) (*CSVDirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open row source %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open row source %s: not a directory", dir)
	}
	return &CSVDirSource{dir: dir}, nil
}

// SheetNames lists the CSV files in the directory, without extension.
func (s *CSVDirSource) SheetNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read row source %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	return names, nil
}

// Rows reads the ordered rows of one sheet.
func (s *CSVDirSource) Rows(sheetName string) ([]Row, error) {
	path := filepath.Join(s.dir, sheetName+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", sheetName, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
