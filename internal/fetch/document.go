package fetch

import (
	"context"
	"net/http"
	neturl "net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cuzic/woc-download/internal/naming"
)

var (
	googleDocIDRe   = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	googleParamIDRe = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

// DocumentFetcher downloads document URLs over HTTP. Google Workspace
// URLs are rewritten to their export endpoints so the result is a real
// file rather than an HTML viewer page.
type DocumentFetcher struct {
	Client *Client
}

func (f *DocumentFetcher) Fetch(ctx context.Context, url, outputPath string, kind naming.URLType) (*Result, error) {
	fetchURL, ext, err := exportURL(url, kind)
	if err != nil {
		return nil, err
	}
	path := outputPath
	if ext != "" && !strings.HasSuffix(strings.ToLower(path), ext) {
		path += ext
	}

	resp, err := f.Client.Get(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, fetchURL)
	}

	size, err := saveResponse(resp.Body, path)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, ByteSize: size}, nil
}

// exportURL rewrites Google Workspace URLs into direct-download form
// and reports the extension the export produces.
func exportURL(url string, kind naming.URLType) (fetchURL, ext string, err error) {
	switch kind {
	case naming.URLTypeGoogleSlides:
		id, err := googleFileID(url)
		if err != nil {
			return "", "", err
		}
		return "https://docs.google.com/presentation/d/" + id + "/export?format=pdf", ".pdf", nil
	case naming.URLTypeGoogleDocs:
		id, err := googleFileID(url)
		if err != nil {
			return "", "", err
		}
		return "https://docs.google.com/document/d/" + id + "/export?format=pdf", ".pdf", nil
	case naming.URLTypeGoogleSheets:
		id, err := googleFileID(url)
		if err != nil {
			return "", "", err
		}
		return "https://docs.google.com/spreadsheets/d/" + id + "/export?format=xlsx", ".xlsx", nil
	case naming.URLTypeGoogleDriveFile:
		id, err := googleFileID(url)
		if err != nil {
			return "", "", err
		}
		return "https://drive.google.com/uc?export=download&id=" + id, "", nil
	case naming.URLTypeGoogleDriveFolder:
		return "", "", Permanentf("drive folders are not downloadable: %s", url)
	default:
		return url, urlExtension(url), nil
	}
}

// urlExtension extracts a plausible file extension from the URL path so
// a direct download keeps its suffix.
func urlExtension(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	return strings.ToLower(ext)
}

// googleFileID pulls the file ID out of a Google URL, accepting both
// the /d/{id} path form and the ?id= query form.
func googleFileID(url string) (string, error) {
	if m := googleDocIDRe.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	if m := googleParamIDRe.FindStringSubmatch(url); m != nil {
		return m[1], nil
	}
	return "", Permanentf("no file ID in %s", url)
}
