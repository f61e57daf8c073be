package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/answerhunter/internal/cache"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// CachedProvider serves repeated searches from a cache. Cache failures are logged
// and fall through to the wrapped provider; provider errors are never cached.
type CachedProvider struct {
	next  Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next. A non-positive ttl disables caching.
func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: c, ttl: ttl}
}

func (p *CachedProvider) Search(ctx context.Context, query string, count int) ([]models.SearchHit, error) {
	if p.ttl <= 0 {
		return p.next.Search(ctx, query, count)
	}

	key := cache.SearchResultKey(query, count)

	raw, found, err := p.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("search cache read failed", "error", err, "key", key)
	}
	if found {
		var hits []models.SearchHit
		if err := json.Unmarshal(raw, &hits); err == nil {
			slog.Debug("search cache hit", "query", query, "count", count)
			return hits, nil
		}
		slog.Warn("discarding corrupt search cache entry", "key", key)
		if err := p.cache.Delete(ctx, key); err != nil {
			slog.Warn("search cache delete failed", "error", err, "key", key)
		}
	}

	hits, err := p.next.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(hits); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			slog.Warn("search cache write failed", "error", err, "key", key)
		}
	}

	return hits, nil
}

var _ Provider = (*CachedProvider)(nil)
