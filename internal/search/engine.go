// Package search implements the query engine: multi-term relevance scoring
// over the inverted index with the vote count as tie-breaker, and a
// substring linear-scan fallback for logs that have never been indexed.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/expvault/expvault/internal/experience"
	"github.com/expvault/expvault/internal/index"
	"github.com/expvault/expvault/internal/store"
	"github.com/expvault/expvault/internal/tokenizer"
	"github.com/expvault/expvault/pkg/metrics"
)

// ScoredRecord is a full experience record with the number of query terms it
// matched. Score is 0 only on the linear-scan fallback path.
type ScoredRecord struct {
	experience.Record
	Score int `json:"score"`
}

// Engine resolves free-text queries into ranked records.
type Engine struct {
	store        *store.Store
	idx          *index.Manager
	cache        *QueryCache
	defaultLimit int
	maxResults   int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewEngine creates an Engine. cache and m may be nil.
func NewEngine(st *store.Store, idx *index.Manager, cache *QueryCache, defaultLimit, maxResults int, m *metrics.Metrics) *Engine {
	if defaultLimit < 1 {
		defaultLimit = 5
	}
	if maxResults < defaultLimit {
		maxResults = defaultLimit
	}
	return &Engine{
		store:        st,
		idx:          idx,
		cache:        cache,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		metrics:      m,
		logger:       slog.Default().With("component", "search"),
	}
}

// Search tokenizes the query, guarantees index freshness, scores candidates
// by matched-term count, breaks ties by votes, and materializes the top
// limit records. A query with no valid terms is a normal zero-match outcome,
// never an error.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]ScoredRecord, error) {
	start := time.Now()
	if limit < 1 {
		limit = e.defaultLimit
	}
	if limit > e.maxResults {
		limit = e.maxResults
	}

	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 {
		e.count("no_terms")
		return []ScoredRecord{}, nil
	}

	var (
		results     []ScoredRecord
		cacheStatus = "off"
		err         error
	)
	if e.cache != nil {
		var hit bool
		results, hit, err = e.cache.GetOrCompute(ctx, terms, limit, func() ([]ScoredRecord, error) {
			return e.execute(query, terms, limit)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	} else {
		results, err = e.execute(query, terms, limit)
	}
	if err != nil {
		e.count("error")
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(results)))
	}
	if len(results) == 0 {
		e.count("zero_result")
	} else {
		e.count("hit")
	}
	e.logger.Debug("search",
		"terms", terms,
		"limit", limit,
		"results", len(results),
		"cache", cacheStatus,
	)
	return results, nil
}

// InvalidateCache drops cached results after a store mutation. A no-op when
// the cache is disabled.
func (e *Engine) InvalidateCache(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx); err != nil {
		e.logger.Error("cache invalidation failed", "error", err)
	}
}

func (e *Engine) execute(query string, terms []string, limit int) ([]ScoredRecord, error) {
	idx, err := e.idx.Snapshot()
	if err != nil {
		return nil, err
	}
	records, err := e.store.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(idx) == 0 {
		return scanFallback(query, records, limit), nil
	}

	scores := make(map[string]int)
	for _, term := range terms {
		for _, id := range idx[term] {
			scores[id]++
		}
	}

	// Candidates in append order so that the stable sort leaves equally
	// ranked records in store order.
	results := make([]ScoredRecord, 0, len(scores))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if score := scores[rec.ID]; score > 0 {
			results = append(results, ScoredRecord{Record: rec, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Votes > results[j].Votes
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scanFallback is the degraded path used when no indexed records exist: a
// case-insensitive substring test of the raw query over each record's text,
// ranked purely by votes.
func scanFallback(query string, records []experience.Record, limit int) []ScoredRecord {
	needle := strings.ToLower(query)
	results := make([]ScoredRecord, 0)
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.ScanText()), needle) {
			results = append(results, ScoredRecord{Record: rec})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (e *Engine) count(resultType string) {
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}
