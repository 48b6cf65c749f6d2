package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
)

const terminologyNamespace = "icd"

// CachedTerminologyProvider wraps a TerminologyProvider with cache-aside lookups.
// Only successful searches are stored.
type CachedTerminologyProvider struct {
	provider   providers.TerminologyProvider
	cache      providers.CacheProvider
	ttlSeconds int
}

// NewCachedTerminologyProvider creates a caching terminology provider
func NewCachedTerminologyProvider(provider providers.TerminologyProvider, cache providers.CacheProvider, ttlSeconds int) providers.TerminologyProvider {
	return &CachedTerminologyProvider{
		provider:   provider,
		cache:      cache,
		ttlSeconds: ttlSeconds,
	}
}

// Search returns cached hits for the normalized query, or delegates and caches the result
func (p *CachedTerminologyProvider) Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error) {
	key := lookupKey(terminologyNamespace, query, maxResults)
	logger := observability.LoggerFromContext(ctx)
	metrics := observability.DefaultMetrics()

	if cached, err := p.cache.Get(ctx, key); err == nil {
		var hits []entities.TerminologyHit
		decodeErr := json.Unmarshal(cached, &hits)
		if decodeErr == nil {
			observability.RecordCacheHit(ctx, metrics, terminologyNamespace)
			return hits, nil
		}
		logger.Warn().Err(decodeErr).Str("key", key).Msg("Discarding unreadable cached terminology hits")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("Terminology cache read failed")
	}
	observability.RecordCacheMiss(ctx, metrics, terminologyNamespace)

	hits, err := p.provider.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(hits); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttlSeconds); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache terminology hits")
		}
	}
	return hits, nil
}
