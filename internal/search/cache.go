package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/expvault/expvault/pkg/config"
	"github.com/expvault/expvault/pkg/metrics"
	pkgredis "github.com/expvault/expvault/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "expvault:search:"

// QueryCache caches ranked search results in Redis. Concurrent identical
// queries collapse into a single computation via singleflight.
type QueryCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewQueryCache creates a QueryCache over an established Redis client.
func NewQueryCache(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for the term set and limit, if present.
func (c *QueryCache) Get(ctx context.Context, terms []string, limit int) ([]ScoredRecord, bool) {
	key := buildKey(terms, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var results []ScoredRecord
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	return results, true
}

// Set stores results under the term set and limit with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, terms []string, limit int, results []ScoredRecord) {
	key := buildKey(terms, limit)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or runs computeFn exactly once per key
// across concurrent callers, caching its result.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	terms []string,
	limit int,
	computeFn func() ([]ScoredRecord, error),
) ([]ScoredRecord, bool, error) {
	if results, ok := c.Get(ctx, terms, limit); ok {
		return results, true, nil
	}
	key := buildKey(terms, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, terms, limit); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, terms, limit, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ScoredRecord), false, nil
}

// Invalidate drops every cached search result. Called after any store
// mutation, since both new records and votes change ranking inputs.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating search cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the sorted term set and limit so that queries differing
// only in term order or repetition share a cache entry.
func buildKey(terms []string, limit int) string {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Strings(sorted)
	raw := fmt.Sprintf("%s:limit=%d", strings.Join(sorted, ","), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
