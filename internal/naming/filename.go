package naming

import (
	"regexp"
	"strings"
)

// Column and field names used by the spreadsheet schemas.
const (
	ContentSheetName   = "コンテンツ"
	contentTitleColumn = "コンテンツタイトル"
	yearColumn         = "実施年"
	dateColumn         = "実施日"
	eventTypeColumn    = "開催種別"
	lectureTitleColumn = "講義タイトル"
)

// MaxFilenameLength is the rune-count cap applied by Sanitize.
const MaxFilenameLength = 200

var (
	chapterRe       = regexp.MustCompile(`(\d+-\d+|\d+)`)
	chapterPrefixRe = regexp.MustCompile(`^\d+-\d+\.?|^\d+\.?`)
	yearRe          = regexp.MustCompile(`(\d{4})`)
	jpDateRe        = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	isoDateRe       = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	controlRe       = regexp.MustCompile(`[\n\r\t]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// forbiddenReplacements maps filesystem-hostile characters to full-width
// lookalikes so generated names stay readable.
var forbiddenReplacer = strings.NewReplacer(
	"/", "／",
	"\\", "＼",
	":", "：",
	"*", "＊",
	"?", "？",
	`"`, "”",
	"<", "＜",
	">", "＞",
	"|", "｜",
)

// Sanitize makes a generated name safe for the filesystem: forbidden
// characters become full-width lookalikes, control characters are
// stripped, runs of whitespace collapse to one space, and the result is
// truncated to MaxFilenameLength runes. Truncation happens at a character
// boundary, never mid-rune.
func Sanitize(name string) string {
	name = forbiddenReplacer.Replace(name)
	name = controlRe.ReplaceAllString(name, "")
	name = whitespaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength])
	}
	return name
}

// ExtractChapter returns the chapter token ("2-3" or "4") from a content
// title, or "" when the title carries none.
func ExtractChapter(title string) string {
	return chapterRe.FindString(title)
}

// ParseJapaneseDate parses a year field ("2025年") and a date field
// ("5月15日" or "2025-05-15") into zero-padded year, month and day
// strings. Unparseable parts fall back to "0000" / "00" / "00".
func ParseJapaneseDate(yearStr, dateStr string) (year, month, day string) {
	year = "0000"
	if m := yearRe.FindStringSubmatch(yearStr); m != nil {
		year = m[1]
	}

	if m := jpDateRe.FindStringSubmatch(dateStr); m != nil {
		return year, pad2(m[1]), pad2(m[2])
	}
	if m := isoDateRe.FindStringSubmatch(dateStr); m != nil {
		return m[1], pad2(m[2]), pad2(m[3])
	}
	return year, "00", "00"
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// GenerateFilename builds the extension-less output file name for one
// (sheet, row, column) cell. The content sheet uses chapter-based naming;
// every other sheet uses date-prefixed naming. The result is sanitized.
func GenerateFilename(sheetName string, row map[string]string, columnName string) string {
	if sheetName == ContentSheetName {
		return Sanitize(contentFilename(row, columnName))
	}
	return Sanitize(lectureFilename(row, columnName))
}

func contentFilename(row map[string]string, columnName string) string {
	title := row[contentTitleColumn]
	chapter := ExtractChapter(title)
	cleanTitle := strings.TrimSpace(chapterPrefixRe.ReplaceAllString(title, ""))

	var suffix string
	switch {
	case strings.Contains(columnName, "DL"), strings.Contains(columnName, "動画"):
		suffix = "video"
	case strings.Contains(columnName, "資料1"):
		suffix = "資料1"
	case strings.Contains(columnName, "資料2"):
		suffix = "資料2"
	default:
		suffix = "file"
	}

	if chapter != "" {
		return chapter + "_" + cleanTitle + "_" + suffix
	}
	return cleanTitle + "_" + suffix
}

// lectureSuffixMarkers is checked in order; 視聴 must win over DL because
// the view-link column name contains both markers.
var lectureSuffixMarkers = []struct {
	marker string
	suffix string
}{
	{"視聴", "video_view"},
	{"DL", "video"},
	{"動画", "video"},
	{"資料1", "資料1"},
	{"資料2", "資料2"},
	{"資料3", "資料3"},
	{"資料4", "資料4"},
}

func lectureFilename(row map[string]string, columnName string) string {
	year, month, day := ParseJapaneseDate(row[yearColumn], row[dateColumn])
	datePrefix := year + month + day

	suffix := "file"
	for _, m := range lectureSuffixMarkers {
		if strings.Contains(columnName, m.marker) {
			suffix = m.suffix
			break
		}
	}

	parts := make([]string, 0, 4)
	for _, p := range []string{datePrefix, row[eventTypeColumn], row[lectureTitleColumn], suffix} {
		if p != "" && p != "nan" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}
