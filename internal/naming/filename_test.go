package naming

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeReplacesForbiddenCharacters(t *testing.T) {
	if got := Sanitize("a/b:c*d"); got != "a／b：c＊d" {
		t.Errorf("Sanitize = %q, want %q", got, "a／b：c＊d")
	}
}

func TestSanitizeStripsControlAndCollapsesWhitespace(t *testing.T) {
	if got := Sanitize("  a\n\tb   c  "); got != "ab c" {
		t.Errorf("Sanitize = %q, want %q", got, "ab c")
	}
}

func TestSanitizeTruncatesAtRuneBoundary(t *testing.T) {
	long := strings.Repeat("あ", MaxFilenameLength+50)
	got := Sanitize(long)
	if n := utf8.RuneCountInString(got); n != MaxFilenameLength {
		t.Errorf("rune count = %d, want %d", n, MaxFilenameLength)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestGenerateFilenameContentSheet(t *testing.T) {
	row := map[string]string{"コンテンツタイトル": "2-3.イントロ"}
	got := GenerateFilename("コンテンツ", row, "動画DLリンク")
	if got != "2-3_イントロ_video" {
		t.Errorf("content filename = %q, want %q", got, "2-3_イントロ_video")
	}
}

func TestGenerateFilenameContentSheetWithoutChapter(t *testing.T) {
	row := map[string]string{"コンテンツタイトル": "まとめ"}
	got := GenerateFilename("コンテンツ", row, "資料1")
	if got != "まとめ_資料1" {
		t.Errorf("content filename = %q, want %q", got, "まとめ_資料1")
	}
}

func TestGenerateFilenameLectureSheet(t *testing.T) {
	row := map[string]string{
		"実施年":    "2025年",
		"実施日":    "5月15日",
		"開催種別":   "定例会",
		"講義タイトル": "AI活用",
	}
	got := GenerateFilename("講義録画・資料", row, "録画（動画視聴リンク）")
	if got != "20250515_定例会_AI活用_video_view" {
		t.Errorf("lecture filename = %q", got)
	}
}

func TestGenerateFilenameSkipsNanParts(t *testing.T) {
	row := map[string]string{
		"実施年":    "2025年",
		"実施日":    "5月15日",
		"開催種別":   "nan",
		"講義タイトル": "AI活用",
	}
	got := GenerateFilename("グルコン", row, "資料3")
	if got != "20250515_AI活用_資料3" {
		t.Errorf("lecture filename = %q", got)
	}
}

func TestParseJapaneseDateFallback(t *testing.T) {
	year, month, day := ParseJapaneseDate("2025年", "unparseable")
	if year+month+day != "20250000" {
		t.Errorf("date prefix = %q, want 20250000", year+month+day)
	}
}

func TestParseJapaneseDateISO(t *testing.T) {
	year, month, day := ParseJapaneseDate("", "2024-3-7")
	if year != "2024" || month != "03" || day != "07" {
		t.Errorf("parsed %s-%s-%s", year, month, day)
	}
}

func TestExtractChapter(t *testing.T) {
	cases := map[string]string{
		"2-3.イントロ": "2-3",
		"4.応用編":    "4",
		"イントロ":     "",
	}
	for title, want := range cases {
		if got := ExtractChapter(title); got != want {
			t.Errorf("ExtractChapter(%q) = %q, want %q", title, got, want)
		}
	}
}
