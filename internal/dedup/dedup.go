// Package dedup maintains the fingerprint-keyed store that maps each
// normalized URL to its first materialized file ("original") and the
// links created for later occurrences.
package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cuzic/woc-download/internal/naming"
)

// Link modes.
const (
	ModeSymlink   = "symlink"
	ModeCopy      = "copy"
	ModeReference = "reference"
)

// ErrNotRegistered is returned by AddReference for unknown fingerprints.
var ErrNotRegistered = errors.New("url not registered in dedup store")

const documentVersion = 1

// Reference records one link created for a duplicate occurrence.
type Reference struct {
	LinkPath  string    `json:"link_path"`
	LinkKind  string    `json:"link_kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is the persisted dedup state of one fingerprint. At most one
// entry ever exists per fingerprint.
type Entry struct {
	URL          string      `json:"url"`
	Fingerprint  string      `json:"fingerprint"`
	OriginalPath string      `json:"original_path"`
	ByteSize     int64       `json:"byte_size"`
	RegisteredAt time.Time   `json:"registered_at"`
	References   []Reference `json:"references"`
}

// Statistics summarizes the store. SpaceSavedBytes is only meaningful in
// symlink mode; copy duplicates the bytes and reference saves nothing the
// store can account for.
type Statistics struct {
	UniqueURLs      int   `json:"unique_urls"`
	TotalReferences int   `json:"total_references"`
	SpaceSavedBytes int64 `json:"space_saved_bytes"`
}

// DuplicateCount pairs a URL with its reference count, for reporting.
type DuplicateCount struct {
	URL        string
	References int
}

// document is the on-disk shape. Entries are stored as a list so that
// insertion order survives reloads (TopDuplicates tie-breaking is stable).
type document struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
}

// Store is the dedup store: one JSON document, loaded fully at
// construction, rewritten atomically after every mutation.
type Store struct {
	path string
	mode string
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string // fingerprints in insertion order
}

// NewStore loads (or initializes) the dedup store at path. mode selects
// how CreateLink materializes duplicates. A corrupt document degrades to
// an empty store with a logged warning.
func NewStore(path, mode string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.With("component", "dedup")
	}
	switch mode {
	case ModeSymlink, ModeCopy, ModeReference:
	default:
		return nil, fmt.Errorf("invalid dedup mode %q", mode)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	s := &Store{
		path:    path,
		mode:    mode,
		log:     log,
		entries: make(map[string]*Entry),
	}
	s.load()
	return s, nil
}

// Mode returns the configured link mode.
func (s *Store) Mode() string {
	return s.mode
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read dedup store, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("dedup store is corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for i := range doc.Entries {
		entry := doc.Entries[i]
		if entry.Fingerprint == "" {
			entry.Fingerprint = naming.Fingerprint(entry.URL)
		}
		s.entries[entry.Fingerprint] = &entry
		s.order = append(s.order, entry.Fingerprint)
	}
}

// save rewrites the document atomically (temp file + rename). Caller
// holds mu.
func (s *Store) save() error {
	doc := document{
		Version:   documentVersion,
		UpdatedAt: time.Now().UTC(),
		Entries:   make([]Entry, 0, len(s.entries)),
	}
	for _, fp := range s.order {
		if entry, ok := s.entries[fp]; ok {
			doc.Entries = append(doc.Entries, *entry)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dedup store: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write dedup store temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename dedup store: %w", err)
	}
	return nil
}

// IsDuplicate reports whether url's fingerprint is registered with a
// still-existing original file. A stale entry (original deleted
// out-of-band) is removed and persisted before reporting not-a-duplicate,
// so the store self-heals lazily on lookup.
func (s *Store) IsDuplicate(url string) (bool, string) {
	fp := naming.Fingerprint(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[fp]
	if !ok {
		return false, ""
	}

	if _, err := os.Stat(entry.OriginalPath); err != nil {
		s.log.Info("dedup original missing, invalidating entry",
			"url", url, "original_path", entry.OriginalPath)
		s.removeLocked(fp)
		if err := s.save(); err != nil {
			s.log.Warn("failed to persist dedup invalidation", "error", err)
		}
		return false, ""
	}

	return true, entry.OriginalPath
}

func (s *Store) removeLocked(fp string) {
	delete(s.entries, fp)
	for i, existing := range s.order {
		if existing == fp {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Register records a freshly downloaded original for url's fingerprint.
// First writer wins: if the fingerprint is already registered, the call
// is a no-op, which keeps at most one entry per fingerprint under
// concurrent execution.
func (s *Store) Register(url, originalPath string, byteSize int64) error {
	fp := naming.Fingerprint(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[fp]; ok {
		return nil
	}

	s.entries[fp] = &Entry{
		URL:          url,
		Fingerprint:  fp,
		OriginalPath: originalPath,
		ByteSize:     byteSize,
		RegisteredAt: time.Now().UTC(),
		References:   []Reference{},
	}
	s.order = append(s.order, fp)
	return s.save()
}

// AddReference appends a link record for a duplicate occurrence and
// returns the original path. Returns ErrNotRegistered for unknown
// fingerprints.
func (s *Store) AddReference(url, linkPath string) (string, error) {
	fp := naming.Fingerprint(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[fp]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, url)
	}

	entry.References = append(entry.References, Reference{
		LinkPath:  linkPath,
		LinkKind:  s.mode,
		CreatedAt: time.Now().UTC(),
	})
	if err := s.save(); err != nil {
		return "", err
	}
	return entry.OriginalPath, nil
}

// CreateLink materializes the duplicate relationship on the filesystem
// per the configured mode: a symlink to the original, a full copy, or
// nothing at all for reference mode (the store record is the only
// artifact and downstream consumers resolve it themselves).
func (s *Store) CreateLink(originalPath, linkPath string) error {
	if s.mode == ModeReference {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return fmt.Errorf("create link directory: %w", err)
	}

	switch s.mode {
	case ModeSymlink:
		abs, err := filepath.Abs(originalPath)
		if err != nil {
			return fmt.Errorf("resolve original path: %w", err)
		}
		if err := os.Symlink(abs, linkPath); err != nil {
			return fmt.Errorf("create symlink: %w", err)
		}
	case ModeCopy:
		if err := copyFile(originalPath, linkPath); err != nil {
			return fmt.Errorf("copy original: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Statistics summarizes the store contents.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{UniqueURLs: len(s.entries)}
	for _, entry := range s.entries {
		stats.TotalReferences += len(entry.References)
		if s.mode == ModeSymlink {
			stats.SpaceSavedBytes += entry.ByteSize * int64(len(entry.References))
		}
	}
	return stats
}

// Reset clears all entries. Destructive; only invoked on explicit demand.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	s.order = nil
	return s.save()
}

// TopDuplicates returns up to n entries ordered by reference count
// descending. Ties keep insertion order.
func (s *Store) TopDuplicates(n int) []DuplicateCount {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make([]DuplicateCount, 0, len(s.order))
	for _, fp := range s.order {
		if entry, ok := s.entries[fp]; ok {
			counts = append(counts, DuplicateCount{URL: entry.URL, References: len(entry.References)})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].References > counts[j].References
	})
	if n < 0 {
		n = 0
	}
	if n < len(counts) {
		counts = counts[:n]
	}
	return counts
}
