// Package app wires configuration into the coding pipeline. The HTTP server and
// the CLI share it so both see identical provider, cache and service setup.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/adapters/cache"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/application/services"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/icd"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/openfda"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/redis"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/config"
)

const redisKeyPrefix = "coding:"

// App holds the assembled services
type App struct {
	Terminology *services.TerminologyService
	Treatments  *services.TreatmentService
	Pipeline    *services.CodingPipelineService

	closers []func() error
}

// Close releases connections opened by Build
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build assembles the clients, cache decorators and services described by cfg
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.GetLogger()

	aliases, err := services.LoadAliasTable(cfg.OpenFDA.AliasTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias table: %w", err)
	}

	if !cfg.ICD.Configured() {
		logger.Warn().Msg("ICD_CLIENT_ID/ICD_CLIENT_SECRET not set; terminology lookups will fail with an auth error")
	}

	session := icd.NewSession(icd.SessionConfig{
		ClientID:     cfg.ICD.ClientID,
		ClientSecret: cfg.ICD.ClientSecret,
		TokenURL:     cfg.ICD.TokenURL,
		Scope:        cfg.ICD.Scope,
		Timeout:      cfg.ICD.TokenTimeout,
	})

	var terminology providers.TerminologyProvider = icd.NewClient(cfg.ICD.SearchURL, session, cfg.Pipeline.CallTimeout)
	var labels providers.DrugLabelProvider = openfda.NewClient(openfda.Options{
		BaseURL:      cfg.OpenFDA.BaseURL,
		APIKey:       cfg.OpenFDA.APIKey,
		RateLimitRPM: cfg.OpenFDA.RateLimitRPM,
	})

	a := &App{}

	if cfg.Cache.Enabled {
		cacheProvider, closer := newCacheProvider(ctx, cfg)
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		terminology = cache.NewCachedTerminologyProvider(terminology, cacheProvider, cfg.Cache.TTLSeconds)
		labels = cache.NewCachedDrugLabelProvider(labels, cacheProvider, cfg.Cache.TTLSeconds)
		logger.Info().Int("ttl_seconds", cfg.Cache.TTLSeconds).Msg("Lookup providers wrapped with caching layer")
	} else {
		logger.Info().Msg("Lookup caching disabled")
	}

	a.Terminology = services.NewTerminologyService(terminology, cfg.Pipeline.Concurrency, cfg.Pipeline.CallTimeout)
	a.Treatments = services.NewTreatmentService(labels, aliases, cfg.Pipeline.Concurrency, cfg.Pipeline.CallTimeout)
	a.Pipeline = services.NewCodingPipelineService(a.Terminology, a.Treatments, cfg.Pipeline.MaxResults)

	return a, nil
}

// newCacheProvider prefers Redis and falls back to an in-process LRU when Redis
// is not configured or unreachable.
func newCacheProvider(ctx context.Context, cfg *config.Config) (providers.CacheProvider, func() error) {
	logger := observability.GetLogger()

	if cfg.Redis.Host != "" {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err == nil {
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache initialized")
			return cache.NewRedisAdapter(client.Client(), redisKeyPrefix), client.Close
		}
		logger.Warn().Err(err).Msg("Redis unavailable, using in-process cache")
	}

	return cache.NewLocalAdapter(cfg.Cache.LocalSize, time.Duration(cfg.Cache.TTLSeconds)*time.Second), nil
}
