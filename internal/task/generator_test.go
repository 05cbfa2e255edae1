package task

import (
	"strings"
	"testing"

	"github.com/cuzic/woc-download/internal/naming"
	"github.com/cuzic/woc-download/internal/sheet"
)

func TestGenerateSheetCarryForward(t *testing.T) {
	rows := []sheet.Row{
		{
			"実施年":         "2025年",
			"実施日":         "5月15日",
			"講義タイトル":      "第一回",
			"録画（動画DLリンク）": "https://vimeo.com/111",
		},
		{
			"実施年":         "",
			"実施日":         "",
			"講義タイトル":      "第二回",
			"録画（動画DLリンク）": "https://vimeo.com/222",
		},
	}

	gen := NewGenerator("dl")
	tasks := gen.GenerateSheet("講義録画・資料", rows)

	if len(tasks) != 2 {
		t.Fatalf("task count = %d, want 2", len(tasks))
	}
	if !strings.Contains(tasks[1].TargetPath, "20250515") {
		t.Errorf("row 2 did not inherit year/date: %q", tasks[1].TargetPath)
	}
}

func TestGenerateSheetSkipsPlaceholders(t *testing.T) {
	rows := []sheet.Row{
		{
			"講義タイトル":      "第一回",
			"録画（動画視聴リンク）": "-",
			"録画（動画DLリンク）": "   ",
			"資料1":         "",
			"資料2":         "https://docs.google.com/presentation/d/ID/edit",
		},
	}

	tasks := NewGenerator("dl").GenerateSheet("グルコン", rows)
	if len(tasks) != 1 {
		t.Fatalf("task count = %d, want 1", len(tasks))
	}
	if tasks[0].URLType != naming.URLTypeGoogleSlides {
		t.Errorf("url type = %q", tasks[0].URLType)
	}
	if tasks[0].ColumnName != "資料2" {
		t.Errorf("column = %q", tasks[0].ColumnName)
	}
}

func TestGenerateSheetContentCategory(t *testing.T) {
	rows := []sheet.Row{
		{
			"コンテンツタイトル": "2-3.イントロ",
			"動画DLリンク":   "https://vimeo.com/333",
		},
	}

	tasks := NewGenerator("dl").GenerateSheet("コンテンツ", rows)
	if len(tasks) != 1 {
		t.Fatalf("task count = %d, want 1", len(tasks))
	}
	if !strings.HasSuffix(tasks[0].TargetPath, "2-3_イントロ_video") {
		t.Errorf("target path = %q", tasks[0].TargetPath)
	}
	if tasks[0].SheetName != "コンテンツ" || tasks[0].RowIndex != 0 {
		t.Errorf("provenance = %+v", tasks[0])
	}
}

func TestGenerateSheetMultipleColumnsPerRow(t *testing.T) {
	rows := []sheet.Row{
		{
			"実施年":         "2024年",
			"実施日":         "2024-01-10",
			"講義タイトル":      "合宿",
			"録画（動画視聴リンク）": "https://youtu.be/a",
			"資料1":         "https://docs.google.com/document/d/X/edit",
			"資料3":         "https://example.com/extra.pdf",
		},
	}

	tasks := NewGenerator("dl").GenerateSheet("合宿", rows)
	if len(tasks) != 3 {
		t.Fatalf("task count = %d, want 3", len(tasks))
	}
	// Column order follows the schema, not map iteration.
	if tasks[0].ColumnName != "録画（動画視聴リンク）" || tasks[1].ColumnName != "資料1" || tasks[2].ColumnName != "資料3" {
		t.Errorf("column order = %v, %v, %v", tasks[0].ColumnName, tasks[1].ColumnName, tasks[2].ColumnName)
	}
}
