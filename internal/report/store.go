package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/rshade/bulkrun/pkg/bulk"
)

// reportFileExtension is the file extension used for report files.
const reportFileExtension = ".json"

// Common store errors.
var (
	ErrReportNotFound = errors.New("report not found")
	ErrReportExpired  = errors.New("report expired")
	ErrInvalidRunID   = errors.New("invalid run id")
)

// FileStore keeps reports as JSON files in a directory. Safe for concurrent use.
type FileStore struct {
	fs        afero.Fs
	directory string
	retention time.Duration
	now       func() time.Time

	mu sync.RWMutex
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore returns a store rooted at directory, creating it if needed.
func NewFileStore(fs afero.Fs, directory string, retention time.Duration, opts ...Option) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("report directory cannot be empty")
	}
	if retention < 0 {
		return nil, fmt.Errorf("report retention must be >= 0, got %s", retention)
	}

	if err := fs.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	s := &FileStore{
		fs:        fs,
		directory: directory,
		retention: retention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Directory returns the store's directory.
func (s *FileStore) Directory() string {
	return s.directory
}

// Save writes a new entry for summary and returns it. An existing report for
// the same run is replaced.
func (s *FileStore) Save(summary bulk.Summary, meta Metadata) (*Entry, error) {
	if err := validateRunID(summary.RunID); err != nil {
		return nil, err
	}

	entry := NewEntry(summary, meta, s.now(), s.retention)
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(summary.RunID)

	// Write to a temporary file first, then rename so readers never see a
	// partial report.
	tempPath := path + ".tmp"
	if err = afero.WriteFile(s.fs, tempPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	if err = s.fs.Rename(tempPath, path); err != nil {
		_ = s.fs.Remove(tempPath)
		return nil, fmt.Errorf("renaming report: %w", err)
	}

	return entry, nil
}

// Get returns the report for runID. Expired reports return ErrReportExpired
// until CleanupExpired removes them.
func (s *FileStore) Get(runID string) (*Entry, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, err := s.read(s.pathFor(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, runID)
		}
		return nil, err
	}
	if entry.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrReportExpired, runID)
	}
	return entry, nil
}

// List returns every unexpired report, newest first. Unreadable files are skipped.
func (s *FileStore) List() ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := s.reportPaths()
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]*Entry, 0, len(paths))
	for _, path := range paths {
		entry, readErr := s.read(path)
		if readErr != nil || entry.IsExpired(now) {
			continue
		}
		entries = append(entries, entry)
	}

	slices.SortFunc(entries, func(a, b *Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.RunID, a.RunID)
	})
	return entries, nil
}

// Delete removes the report for runID. Deleting a missing report is not an error.
func (s *FileStore) Delete(runID string) error {
	if err := validateRunID(runID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.pathFor(runID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

// CleanupExpired removes expired reports and returns how many were removed.
func (s *FileStore) CleanupExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.reportPaths()
	if err != nil {
		return 0, err
	}

	now := s.now()
	removed := 0
	for _, path := range paths {
		entry, readErr := s.read(path)
		if readErr != nil {
			continue // Skip files we can't read
		}
		if entry.IsExpired(now) {
			if rmErr := s.fs.Remove(path); rmErr == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Count returns the number of report files, expired ones included.
func (s *FileStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths, err := s.reportPaths()
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

func (s *FileStore) read(path string) (*Entry, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var entry Entry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", filepath.Base(path), err)
	}
	return &entry, nil
}

func (s *FileStore) reportPaths() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.directory)
	if err != nil {
		return nil, fmt.Errorf("reading report directory: %w", err)
	}

	var paths []string
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != reportFileExtension {
			continue
		}
		paths = append(paths, filepath.Join(s.directory, info.Name()))
	}
	return paths, nil
}

func (s *FileStore) pathFor(runID string) string {
	return filepath.Join(s.directory, strings.ToUpper(runID)+reportFileExtension)
}

// validateRunID accepts only ULIDs, which also keeps keys filesystem safe.
func validateRunID(runID string) error {
	if _, err := ulid.ParseStrict(runID); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidRunID, runID, err)
	}
	return nil
}
