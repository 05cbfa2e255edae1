// Package export writes the completion ledger as a parquet file for
// offline analysis.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/cuzic/woc-download/internal/state"
)

// Row is one completion record in the export schema.
type Row struct {
	URL           string `parquet:"url"`
	TargetPath    string `parquet:"target_path"`
	Status        string `parquet:"status"`
	ByteSize      int64  `parquet:"byte_size"`
	CompletedAtMS int64  `parquet:"completed_at_ms,optional"`
	Error         string `parquet:"error,optional"`
	SheetName     string `parquet:"sheet_name"`
	RowIndex      int32  `parquet:"row_index"`
	ColumnName    string `parquet:"column_name"`
}

func toRow(rec state.Record) Row {
	row := Row{
		URL:        rec.URL,
		TargetPath: rec.TargetPath,
		Status:     rec.Status,
		ByteSize:   rec.ByteSize,
		Error:      rec.Error,
		SheetName:  rec.Provenance.SheetName,
		RowIndex:   int32(rec.Provenance.RowIndex),
		ColumnName: rec.Provenance.ColumnName,
	}
	if rec.CompletedAt != nil {
		row.CompletedAtMS = rec.CompletedAt.UnixMilli()
	}
	return row
}

// WriteParquet writes all records to path via a temp file so aborted
// exports never leave a truncated parquet behind.
func WriteParquet(records []state.Record, path string) (int, error) {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}

	writer := parquet.NewGenericWriter[Row](f, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		f.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("write export rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("close export file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("rename export file: %w", err)
	}
	return len(rows), nil
}
