package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuzic/woc-download/internal/naming"
)

type fakeFetcher struct {
	calls   int
	errs    []error
	lastURL string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, outputPath string, _ naming.URLType) (*Result, error) {
	f.calls++
	f.lastURL = url
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return &Result{Path: outputPath, ByteSize: 10}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetryRecoversFromTransient(t *testing.T) {
	inner := &fakeFetcher{errs: []error{Transient(errors.New("reset")), Transient(errors.New("reset"))}}
	f := &RetryingFetcher{
		Inner:       inner,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Log:         discardLogger(),
	}

	result, err := f.Fetch(context.Background(), "https://example.com/a", "/tmp/a", naming.URLTypeUnknown)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.ByteSize != 10 {
		t.Errorf("ByteSize = %d, want 10", result.ByteSize)
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	inner := &fakeFetcher{errs: []error{Permanentf("gone")}}
	f := &RetryingFetcher{
		Inner:       inner,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Log:         discardLogger(),
	}

	_, err := f.Fetch(context.Background(), "https://example.com/a", "/tmp/a", naming.URLTypeUnknown)
	if err == nil {
		t.Fatal("Fetch() error = nil, want permanent error")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &fakeFetcher{errs: []error{
		Transient(errors.New("a")),
		Transient(errors.New("b")),
		Transient(errors.New("c")),
	}}
	f := &RetryingFetcher{
		Inner:       inner,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Log:         discardLogger(),
	}

	_, err := f.Fetch(context.Background(), "https://example.com/a", "/tmp/a", naming.URLTypeUnknown)
	if err == nil {
		t.Fatal("Fetch() error = nil, want error")
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}
}

func TestIsTransientClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"wrapped transient", Transient(errors.New("x")), true},
		{"wrapped permanent", Permanentf("x"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"fmt-wrapped transient", fmt.Errorf("task: %w", Transient(errors.New("x"))), true},
		{"plain error", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	if !IsTransient(classifyStatus(503, "u")) {
		t.Error("503 should be transient")
	}
	if !IsTransient(classifyStatus(429, "u")) {
		t.Error("429 should be transient")
	}
	if IsTransient(classifyStatus(404, "u")) {
		t.Error("404 should be permanent")
	}
	if IsTransient(classifyStatus(403, "u")) {
		t.Error("403 should be permanent")
	}
}

func TestClassifyVideoError(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		transient bool
	}{
		{"unavailable", "ERROR: [youtube] abc123: Video unavailable", false},
		{"private", "ERROR: [vimeo] 987: Private video", false},
		{"gone", "ERROR: This video is no longer available", false},
		{"http 404", "ERROR: [generic] clip: HTTP Error 404: Not Found", false},
		{"unsupported", "ERROR: Unsupported URL: https://example.com/page", false},
		{"malformed", "ERROR: 'htp:/x' is not a valid URL", false},
		{"network", "ERROR: unable to download webpage: connection reset by peer", true},
		{"timeout", "ERROR: unable to download webpage: timed out", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyVideoError("https://example.com/v", errors.New(tt.msg))
			if got := IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient(%q) = %v, want %v", tt.msg, got, tt.transient)
			}
		})
	}
}

func TestExportURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		kind    naming.URLType
		want    string
		wantExt string
	}{
		{
			"slides",
			"https://docs.google.com/presentation/d/abc123_X-/edit#slide=1",
			naming.URLTypeGoogleSlides,
			"https://docs.google.com/presentation/d/abc123_X-/export?format=pdf",
			".pdf",
		},
		{
			"docs",
			"https://docs.google.com/document/d/docid/edit",
			naming.URLTypeGoogleDocs,
			"https://docs.google.com/document/d/docid/export?format=pdf",
			".pdf",
		},
		{
			"sheets",
			"https://docs.google.com/spreadsheets/d/sheetid/edit?gid=0",
			naming.URLTypeGoogleSheets,
			"https://docs.google.com/spreadsheets/d/sheetid/export?format=xlsx",
			".xlsx",
		},
		{
			"drive file",
			"https://drive.google.com/file/d/fileid/view",
			naming.URLTypeGoogleDriveFile,
			"https://drive.google.com/uc?export=download&id=fileid",
			"",
		},
		{
			"drive file id param",
			"https://drive.google.com/open?id=paramid",
			naming.URLTypeGoogleDriveFile,
			"https://drive.google.com/uc?export=download&id=paramid",
			"",
		},
		{
			"plain url keeps extension",
			"https://example.com/report.pdf?dl=1",
			naming.URLTypeUnknown,
			"https://example.com/report.pdf?dl=1",
			".pdf",
		},
		{
			"plain url without extension",
			"https://example.com/download",
			naming.URLTypeUnknown,
			"https://example.com/download",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ext, err := exportURL(tt.url, tt.kind)
			if err != nil {
				t.Fatalf("exportURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("exportURL() = %q, want %q", got, tt.want)
			}
			if ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", ext, tt.wantExt)
			}
		})
	}
}

func TestExportURLDriveFolder(t *testing.T) {
	_, _, err := exportURL("https://drive.google.com/drive/folders/x", naming.URLTypeGoogleDriveFolder)
	if err == nil {
		t.Fatal("expected error for drive folder")
	}
	if IsTransient(err) {
		t.Error("drive folder error should be permanent")
	}
}

func TestDocumentFetcherDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hello document")
	}))
	defer srv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "report")
	f := &DocumentFetcher{Client: NewClient(5*time.Second, "")}

	result, err := f.Fetch(context.Background(), srv.URL+"/report.pdf", target, naming.URLTypeUnknown)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.ByteSize != int64(len("hello document")) {
		t.Errorf("ByteSize = %d", result.ByteSize)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	if string(data) != "hello document" {
		t.Errorf("content = %q", data)
	}
	if result.Path != target+".pdf" {
		t.Errorf("Path = %q, want the URL's extension carried over", result.Path)
	}
	if _, err := os.Stat(result.Path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestDocumentFetcherStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := &DocumentFetcher{Client: NewClient(5*time.Second, "")}
	_, err := f.Fetch(context.Background(), srv.URL+"/x", filepath.Join(t.TempDir(), "x"), naming.URLTypeUnknown)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if IsTransient(err) {
		t.Error("404 should not be retried")
	}
}

func TestDispatcherRouting(t *testing.T) {
	video := &fakeFetcher{}
	document := &fakeFetcher{}
	d := NewDispatcher(video, document)
	dir := t.TempDir()

	if _, err := d.Fetch(context.Background(), "https://vimeo.com/1", filepath.Join(dir, "a", "v"), naming.URLTypeVimeo); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := d.Fetch(context.Background(), "https://example.com/d", filepath.Join(dir, "a", "d"), naming.URLTypeUnknown); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if video.calls != 1 {
		t.Errorf("video calls = %d, want 1", video.calls)
	}
	if document.calls != 1 {
		t.Errorf("document calls = %d, want 1", document.calls)
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); err != nil {
		t.Errorf("target dir not created: %v", err)
	}
}

func TestNewestProduced(t *testing.T) {
	dir := t.TempDir()
	stem := filepath.Join(dir, "lecture_video")
	os.WriteFile(stem+".ja.vtt", []byte("subtitle body here"), 0o644)
	os.WriteFile(stem+".en.vtt", []byte("short"), 0o644)
	os.WriteFile(filepath.Join(dir, "other.vtt"), []byte("unrelated"), 0o644)

	path, size, err := newestProduced(stem)
	if err != nil {
		t.Fatalf("newestProduced() error = %v", err)
	}
	if path != stem+".ja.vtt" {
		t.Errorf("path = %q, want largest subtitle", path)
	}
	if size != int64(len("subtitle body here")) {
		t.Errorf("size = %d", size)
	}
}

func TestNewestProducedNothing(t *testing.T) {
	_, _, err := newestProduced(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error when nothing was produced")
	}
	if IsTransient(err) {
		t.Error("missing subtitles should be permanent")
	}
}
