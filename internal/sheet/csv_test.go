package sheet

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestCSVDirSourceSheetNames(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "b.csv", "col\n")
	writeCSV(t, dir, "a.csv", "col\n")
	writeCSV(t, dir, "notes.txt", "ignored")

	src, err := NewCSVDirSource(dir)
	if err != nil {
		t.Fatalf("NewCSVDirSource: %v", err)
	}

	names, err := src.SheetNames()
	if err != nil {
		t.Fatalf("SheetNames: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v, want [a b]", names)
	}
}

func TestCSVDirSourceRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "講義.csv", "実施年,講義タイトル\n2025年,AI入門\n,続編\n")

	src, err := NewCSVDirSource(dir)
	if err != nil {
		t.Fatalf("NewCSVDirSource: %v", err)
	}

	rows, err := src.Rows("講義")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(rows))
	}
	if rows[0].Get("講義タイトル") != "AI入門" {
		t.Errorf("row 0 title = %q", rows[0].Get("講義タイトル"))
	}
	if rows[1].Get("実施年") != "" {
		t.Errorf("row 1 year = %q, want empty", rows[1].Get("実施年"))
	}
}

func TestCSVDirSourceRaggedRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "s.csv", "a,b,c\n1,2\n")

	src, err := NewCSVDirSource(dir)
	if err != nil {
		t.Fatalf("NewCSVDirSource: %v", err)
	}
	rows, err := src.Rows("s")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if rows[0].Get("c") != "" {
		t.Errorf("short row should read missing column as empty")
	}
}

func TestNewCSVDirSourceMissingDir(t *testing.T) {
	if _, err := NewCSVDirSource(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestURLColumnsByCategory(t *testing.T) {
	content := URLColumns("コンテンツ")
	if len(content) != 4 || content[0] != "動画リンク" {
		t.Errorf("content columns = %v", content)
	}
	lecture := URLColumns("グルコン")
	if len(lecture) != 6 || lecture[0] != "録画（動画視聴リンク）" {
		t.Errorf("lecture columns = %v", lecture)
	}
}
