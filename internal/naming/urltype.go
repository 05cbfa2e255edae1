package naming

import "strings"

// URLType classifies a URL by download provider.
type URLType string

const (
	URLTypeVimeo             URLType = "vimeo"
	URLTypeYouTube           URLType = "youtube"
	URLTypeLoom              URLType = "loom"
	URLTypeUtage             URLType = "utage"
	URLTypeM3U8              URLType = "m3u8"
	URLTypeGoogleSlides      URLType = "google_slides"
	URLTypeGoogleSheets      URLType = "google_sheets"
	URLTypeGoogleDocs        URLType = "google_docs"
	URLTypeGoogleDriveFile   URLType = "google_drive_file"
	URLTypeGoogleDriveFolder URLType = "google_drive_folder"
	URLTypeUnknown           URLType = "unknown"
)

// urlTypeMarkers is matched in order; the first hit wins.
var urlTypeMarkers = []struct {
	markers []string
	typ     URLType
}{
	{[]string{"vimeo.com"}, URLTypeVimeo},
	{[]string{"youtube.com", "youtu.be"}, URLTypeYouTube},
	{[]string{"loom.com"}, URLTypeLoom},
	{[]string{"utage-system.com"}, URLTypeUtage},
	{[]string{".m3u8"}, URLTypeM3U8},
	{[]string{"docs.google.com/presentation"}, URLTypeGoogleSlides},
	{[]string{"docs.google.com/spreadsheets"}, URLTypeGoogleSheets},
	{[]string{"docs.google.com/document"}, URLTypeGoogleDocs},
	{[]string{"drive.google.com/file"}, URLTypeGoogleDriveFile},
	{[]string{"drive.google.com/drive/folders"}, URLTypeGoogleDriveFolder},
}

// DetectURLType classifies a URL by substring match against the provider
// marker table. Matching is case-insensitive.
func DetectURLType(rawURL string) URLType {
	lower := strings.ToLower(rawURL)
	for _, entry := range urlTypeMarkers {
		for _, marker := range entry.markers {
			if strings.Contains(lower, marker) {
				return entry.typ
			}
		}
	}
	return URLTypeUnknown
}

// IsVideo reports whether this URL type is fetched through the video
// (yt-dlp) path rather than the document path.
func (t URLType) IsVideo() bool {
	switch t {
	case URLTypeVimeo, URLTypeYouTube, URLTypeLoom, URLTypeUtage, URLTypeM3U8:
		return true
	}
	return false
}
