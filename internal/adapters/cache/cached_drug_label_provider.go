package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
)

const drugLabelNamespace = "openfda"

// CachedDrugLabelProvider wraps a DrugLabelProvider with cache-aside lookups
type CachedDrugLabelProvider struct {
	provider   providers.DrugLabelProvider
	cache      providers.CacheProvider
	ttlSeconds int
}

// NewCachedDrugLabelProvider creates a caching drug label provider
func NewCachedDrugLabelProvider(provider providers.DrugLabelProvider, cache providers.CacheProvider, ttlSeconds int) providers.DrugLabelProvider {
	return &CachedDrugLabelProvider{
		provider:   provider,
		cache:      cache,
		ttlSeconds: ttlSeconds,
	}
}

// SearchByIndication returns cached rows for the term, or delegates and caches the result.
// Empty results are cached too: "no labels" is a valid answer.
func (p *CachedDrugLabelProvider) SearchByIndication(ctx context.Context, term string, limit int) ([]entities.TreatmentEntry, error) {
	key := lookupKey(drugLabelNamespace, term, limit)
	logger := observability.LoggerFromContext(ctx)
	metrics := observability.DefaultMetrics()

	if cached, err := p.cache.Get(ctx, key); err == nil {
		var entries []entities.TreatmentEntry
		decodeErr := json.Unmarshal(cached, &entries)
		if decodeErr == nil {
			observability.RecordCacheHit(ctx, metrics, drugLabelNamespace)
			return entries, nil
		}
		logger.Warn().Err(decodeErr).Str("key", key).Msg("Discarding unreadable cached drug labels")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		logger.Warn().Err(err).Str("key", key).Msg("Drug label cache read failed")
	}
	observability.RecordCacheMiss(ctx, metrics, drugLabelNamespace)

	entries, err := p.provider.SearchByIndication(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttlSeconds); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache drug labels")
		}
	}
	return entries, nil
}
