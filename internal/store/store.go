// Package store implements the append-only JSONL experience log. Reads
// tolerate malformed lines, appends are single-write durable, and the full
// rewrite used for vote updates holds the store lock across its whole
// read-modify-write sequence.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/expvault/expvault/internal/experience"
)

// Version is a change token for the log file, derived from its size and
// modification time. Two equal Versions mean the file has not been mutated
// between the two observations.
type Version struct {
	Size    int64
	ModTime time.Time
	Exists  bool
}

// Store is an append-only newline-delimited JSON log of experience records.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// New creates a Store for the given log path. The file is created lazily on
// first append; a missing file reads as an empty log.
func New(path string) *Store {
	return &Store{
		path:   path,
		logger: slog.Default().With("component", "store"),
	}
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Version stats the log file and returns its current change token. A missing
// file yields the zero Version with Exists=false, not an error.
func (s *Store) Version() (Version, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Version{}, nil
		}
		return Version{}, fmt.Errorf("stat %s: %w", s.path, err)
	}
	return Version{Size: info.Size(), ModTime: info.ModTime(), Exists: true}, nil
}

// Append writes one record to the end of the log. Non-ASCII characters are
// emitted literally, matching the historical file format.
func (s *Store) Append(rec experience.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", s.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("appending record %s: %w", rec.ID, err)
	}
	return nil
}

// ReadAll parses every non-empty line of the log in append order. Lines that
// fail to parse are skipped, never fatal: the log tolerates a torn trailing
// write or hand-edited history.
func (s *Store) ReadAll() ([]experience.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllLocked()
}

func (s *Store) readAllLocked() ([]experience.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	var records []experience.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec experience.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Debug("skipping malformed record", "line", lineNo, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return records, nil
}

// RewriteAll atomically replaces the entire log with the given records,
// preserving their order. The replacement is written to a temp file in the
// same directory and renamed over the log.
func (s *Store) RewriteAll(records []experience.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteAllLocked(records)
}

func (s *Store) rewriteAllLocked(records []experience.Record) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp log in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("writing record %s: %w", rec.ID, err)
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Update runs fn against the current records while holding the store lock,
// and rewrites the log only if fn reports a change. A concurrent Append can
// never interleave with the read-then-write sequence.
func (s *Store) Update(fn func(records []experience.Record) (changed bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAllLocked()
	if err != nil {
		return err
	}
	changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.rewriteAllLocked(records)
}
