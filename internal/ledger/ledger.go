// Package ledger mutates a record's helpfulness counter by identifier, via a
// full rewrite of the record log.
package ledger

import (
	"log/slog"

	"github.com/expvault/expvault/internal/experience"
	"github.com/expvault/expvault/internal/index"
	"github.com/expvault/expvault/internal/store"
	"github.com/expvault/expvault/pkg/metrics"
)

// Status is the outcome of a vote operation.
type Status string

const (
	StatusVoted    Status = "voted"
	StatusNotFound Status = "not_found"
)

// Ledger increments vote counters on the record log.
type Ledger struct {
	store   *store.Store
	idx     *index.Manager
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Ledger. idx may be nil when no index manager is in play.
func New(st *store.Store, idx *index.Manager, m *metrics.Metrics) *Ledger {
	return &Ledger{
		store:   st,
		idx:     idx,
		metrics: m,
		logger:  slog.Default().With("component", "ledger"),
	}
}

// Vote increments the vote counter of every record carrying id by exactly 1
// and rewrites the log. The read-modify-write sequence runs under the store
// lock. An unknown id reports StatusNotFound and leaves the log untouched;
// that outcome is never conflated with an I/O error.
func (l *Ledger) Vote(id string) (Status, error) {
	matched := 0
	err := l.store.Update(func(records []experience.Record) (bool, error) {
		for i := range records {
			if records[i].ID != "" && records[i].ID == id {
				records[i].Votes++
				matched++
			}
		}
		return matched > 0, nil
	})
	if err != nil {
		l.countVote("error")
		return "", err
	}
	if matched == 0 {
		l.countVote(string(StatusNotFound))
		return StatusNotFound, nil
	}
	if matched > 1 {
		// Ids are supposed to be unique; all copies were incremented.
		l.logger.Warn("duplicate record id during vote", "id", id, "matches", matched)
	}
	// The rewrite changed the log version but not the indexed terms.
	if l.idx != nil {
		if err := l.idx.Sync(); err != nil {
			l.logger.Error("index version sync failed", "error", err)
		}
	}
	l.countVote(string(StatusVoted))
	return StatusVoted, nil
}

func (l *Ledger) countVote(status string) {
	if l.metrics != nil {
		l.metrics.VotesTotal.WithLabelValues(status).Inc()
	}
}
