// Package state persists the completion record of every attempted URL,
// enabling interrupted runs to resume.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record statuses.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusInProgress = "in_progress"
)

// documentVersion is bumped on breaking changes to the persisted schema.
// Unknown fields are ignored on load, so additive changes stay compatible.
const documentVersion = 1

// Provenance records where in the spreadsheet a URL came from.
type Provenance struct {
	SheetName  string `json:"sheet_name"`
	RowIndex   int    `json:"row_index"`
	ColumnName string `json:"column_name"`
}

// Record is the persisted completion state of one URL. Records are keyed
// by URL; later writes overwrite earlier ones.
type Record struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	TargetPath  string     `json:"target_path"`
	Status      string     `json:"status"`
	ByteSize    int64      `json:"byte_size,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Provenance  Provenance `json:"provenance"`
}

// Statistics summarizes the store contents.
type Statistics struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	InProgress int `json:"in_progress"`
}

// document is the on-disk shape of the store.
type document struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Downloads []Record  `json:"downloads"`
}

// Store is the completion store: one JSON document, fully loaded at
// construction and rewritten atomically after every mutation. When a
// mutating call returns, the new state has been durably renamed into
// place.
type Store struct {
	path string
	log  *slog.Logger

	mu      sync.Mutex
	records map[string]Record
}

// NewStore loads (or initializes) the completion store at path.
// An unreadable or malformed document degrades to an empty store with a
// logged warning rather than aborting the run.
func NewStore(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.With("component", "state")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	s := &Store{
		path:    path,
		log:     log,
		records: make(map[string]Record),
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read completion store, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("completion store is corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for _, rec := range doc.Downloads {
		s.records[rec.URL] = rec
	}
}

// save rewrites the whole document atomically: temp file then rename, so
// a crash mid-write never corrupts the previous state. Caller holds mu.
func (s *Store) save() error {
	doc := document{
		Version:   documentVersion,
		UpdatedAt: time.Now().UTC(),
		Downloads: make([]Record, 0, len(s.records)),
	}
	for _, rec := range s.records {
		doc.Downloads = append(doc.Downloads, rec)
	}
	sort.Slice(doc.Downloads, func(i, j int) bool {
		return doc.Downloads[i].URL < doc.Downloads[j].URL
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal completion store: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write completion store temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename completion store: %w", err)
	}
	return nil
}

// IsCompleted reports whether url was recorded completed AND its artifact
// still exists with a non-zero size. When the exact target path is gone,
// sibling files named "{stem}.*" count, tolerating extension discovery by
// the fetcher. Zero-byte files never count; they indicate truncation.
func (s *Store) IsCompleted(url, targetPath string) bool {
	s.mu.Lock()
	rec, ok := s.records[url]
	s.mu.Unlock()

	if !ok || rec.Status != StatusCompleted {
		return false
	}

	path, ok := findArtifact(targetPath)
	if !ok {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return true
	}
	return info.Size() > 0
}

// findArtifact resolves targetPath to an existing file, trying the exact
// path first and then "{stem}.*" siblings in the same directory.
func findArtifact(targetPath string) (string, bool) {
	if _, err := os.Stat(targetPath); err == nil {
		return targetPath, true
	}

	dir := filepath.Dir(targetPath)
	base := filepath.Base(targetPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), stem+".") {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// MarkCompleted upserts a completed record for url. Any prior error is
// cleared. The store is flushed before returning.
func (s *Store) MarkCompleted(url, producedPath string, byteSize int64, prov Provenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec, ok := s.records[url]
	if !ok {
		rec = Record{ID: uuid.New().String(), URL: url, Provenance: prov}
	}
	rec.TargetPath = producedPath
	rec.Status = StatusCompleted
	rec.ByteSize = byteSize
	rec.CompletedAt = &now
	rec.Error = ""

	s.records[url] = rec
	return s.save()
}

// MarkFailed upserts a failed record for url with the error message.
func (s *Store) MarkFailed(url, targetPath, errMsg string, prov Provenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		rec = Record{ID: uuid.New().String(), URL: url, TargetPath: targetPath, Provenance: prov}
	}
	rec.Status = StatusFailed
	rec.Error = errMsg

	s.records[url] = rec
	return s.save()
}

// FailedRecords returns all records with status failed, for retry
// workflows. Ordered by URL for deterministic retries.
func (s *Store) FailedRecords() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.records {
		if rec.Status == StatusFailed {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Records returns every record, ordered by URL.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Statistics summarizes record counts by status.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{Total: len(s.records)}
	for _, rec := range s.records {
		switch rec.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusInProgress:
			stats.InProgress++
		}
	}
	return stats
}

// Reset clears all records. Destructive; only invoked on explicit demand.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]Record)
	return s.save()
}
