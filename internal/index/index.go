// Package index builds and maintains the inverted index mapping normalized
// terms to the experience records containing them. The index is a derived,
// disposable cache: it carries nothing that cannot be reconstructed from the
// record log.
package index

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/expvault/expvault/internal/experience"
	"github.com/expvault/expvault/internal/store"
	"github.com/expvault/expvault/internal/tokenizer"
	"github.com/expvault/expvault/pkg/config"
	"github.com/expvault/expvault/pkg/metrics"
)

// Build derives a fresh inverted index from the given records. Records
// without an identifier predate id support and are silently skipped.
func Build(records []experience.Record) map[string][]string {
	idx := make(map[string][]string)
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		Add(idx, rec)
	}
	return idx
}

// Add patches idx with one record's terms, skipping duplicate id entries.
func Add(idx map[string][]string, rec experience.Record) {
	if rec.ID == "" {
		return
	}
	for _, term := range tokenizer.Tokenize(rec.SearchText()) {
		if slices.Contains(idx[term], rec.ID) {
			continue
		}
		idx[term] = append(idx[term], rec.ID)
	}
}

// Manager owns the in-memory index, keeps it consistent with the record log,
// and persists it beside the log as a flat term-to-ids JSON object.
type Manager struct {
	mu            sync.Mutex
	store         *store.Store
	path          string
	rebuildAlways bool
	metrics       *metrics.Metrics
	logger        *slog.Logger

	terms   map[string][]string
	builtAt store.Version
	ready   bool
}

// NewManager creates a Manager over the given store. With the "rebuild"
// policy every Snapshot call rebuilds from the log; with "incremental" the
// index is patched on writes and rebuilt only when the log changed through a
// path that did not go through this Manager.
func NewManager(st *store.Store, path string, policy string, m *metrics.Metrics) *Manager {
	return &Manager{
		store:         st,
		path:          path,
		rebuildAlways: policy == config.PolicyRebuild,
		metrics:       m,
		logger:        slog.Default().With("component", "index"),
	}
}

// Snapshot returns the index, guaranteed fresh against the current log. The
// returned map is shared; callers must treat it as read-only.
func (m *Manager) Snapshot() (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rebuildAlways {
		if err := m.rebuildLocked("policy"); err != nil {
			return nil, err
		}
		return m.terms, nil
	}
	stale, reason, err := m.staleLocked()
	if err != nil {
		return nil, err
	}
	if stale {
		if err := m.rebuildLocked(reason); err != nil {
			return nil, err
		}
	}
	return m.terms, nil
}

// Record patches the index with a newly appended record and persists the
// result. Must be called after the store append succeeded.
func (m *Manager) Record(rec experience.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		// Cold: a full build covers the new record along with history.
		return m.rebuildLocked("cold")
	}
	Add(m.terms, rec)
	if err := m.saveLocked(); err != nil {
		return err
	}
	return m.syncVersionLocked()
}

// Sync re-captures the log version after a mutation that does not change
// index content, such as a vote rewrite.
func (m *Manager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil
	}
	return m.syncVersionLocked()
}

// Stale reports whether the index no longer matches the log. Used by the
// readiness check.
func (m *Manager) Stale() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rebuildAlways {
		return false, nil
	}
	stale, _, err := m.staleLocked()
	return stale, err
}

func (m *Manager) staleLocked() (bool, string, error) {
	if !m.ready {
		return true, "cold", nil
	}
	ver, err := m.store.Version()
	if err != nil {
		return false, "", err
	}
	if ver != m.builtAt {
		return true, "stale", nil
	}
	return false, "", nil
}

func (m *Manager) rebuildLocked(reason string) error {
	ver, err := m.store.Version()
	if err != nil {
		return err
	}
	records, err := m.store.ReadAll()
	if err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	m.terms = Build(records)
	m.builtAt = ver
	m.ready = true
	if err := m.saveLocked(); err != nil {
		return err
	}
	m.logger.Debug("index rebuilt",
		"reason", reason,
		"terms", len(m.terms),
		"records", len(records),
	)
	if m.metrics != nil {
		m.metrics.IndexRebuildsTotal.WithLabelValues(reason).Inc()
		m.metrics.IndexedTermsCount.Set(float64(len(m.terms)))
	}
	return nil
}

func (m *Manager) syncVersionLocked() error {
	ver, err := m.store.Version()
	if err != nil {
		return err
	}
	m.builtAt = ver
	if m.metrics != nil {
		m.metrics.IndexedTermsCount.Set(float64(len(m.terms)))
	}
	return nil
}

// saveLocked persists the index as a single flat JSON object. No metadata is
// written: scoring derives frequency purely from hit counts at query time.
func (m *Manager) saveLocked() error {
	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp index in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m.terms); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp index: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("replacing %s: %w", m.path, err)
	}
	return nil
}
