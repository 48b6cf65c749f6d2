package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/openfda"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
)

// TreatmentService finds FDA-labeled drugs whose indications mention a condition
type TreatmentService struct {
	provider    providers.DrugLabelProvider
	aliases     *AliasTable
	concurrency int
	callTimeout time.Duration
}

// NewTreatmentService creates a new treatment service. A nil alias table disables the fallback.
func NewTreatmentService(provider providers.DrugLabelProvider, aliases *AliasTable, concurrency int, callTimeout time.Duration) *TreatmentService {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &TreatmentService{
		provider:    provider,
		aliases:     aliases,
		concurrency: clampConcurrency(concurrency),
		callTimeout: callTimeout,
	}
}

// Lookup searches labels by condition text. When nothing is found it retries
// once with the first alias term for the condition. No labels is a valid
// result, not an error.
func (s *TreatmentService) Lookup(ctx context.Context, condition, code string, maxResults int) (entities.TreatmentResult, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	entries, err := s.search(ctx, condition, maxResults)
	if err != nil {
		return entities.TreatmentResult{}, err
	}

	if len(entries) == 0 {
		if term, ok := s.aliases.FallbackTerm(condition); ok {
			observability.LoggerFromContext(ctx).Debug().
				Str("condition", condition).
				Str("alias", term).
				Msg("No labels for condition, retrying with alias")
			entries, err = s.search(ctx, term, maxResults)
			if err != nil {
				return entities.TreatmentResult{}, err
			}
		}
	}

	return entities.NewTreatmentResult(condition, code, entries), nil
}

// BulkLookup looks up treatments for every resolved match, using its title as
// the condition text. Unresolved matches are skipped. Output order follows input order.
func (s *TreatmentService) BulkLookup(ctx context.Context, matches []entities.TerminologyMatch, maxResults int) ([]entities.TreatmentResult, error) {
	resolved := make([]entities.TerminologyMatch, 0, len(matches))
	for _, match := range matches {
		if match.Resolved() {
			resolved = append(resolved, match)
		}
	}

	results := make([]entities.TreatmentResult, len(resolved))
	if len(resolved) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, match := range resolved {
		g.Go(func() error {
			condition := match.Symptom
			if match.Title != nil && strings.TrimSpace(*match.Title) != "" {
				condition = *match.Title
			}
			result, err := s.Lookup(gctx, condition, *match.Code, maxResults)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *TreatmentService) search(ctx context.Context, term string, limit int) ([]entities.TreatmentEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []entities.TreatmentEntry{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	entries, err := s.provider.SearchByIndication(callCtx, term, limit)
	if err != nil {
		if isHardFailure(ctx, err) {
			return nil, hardError(ctx, err)
		}
		logSoftFailure(ctx, openfda.LabelEndpoint, term, err)
		return []entities.TreatmentEntry{}, nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
