package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/icd"
)

// Descriptions used by MapConditions when no code was assigned
const (
	DescriptionEmptyQuery = "Empty query"
	DescriptionNoMatch    = "No match found"
)

// TerminologyService resolves free-text symptoms to ICD-11 codes. Upstream
// failures are logged and turned into empty results; only authentication
// failures and caller cancellation are returned as errors.
type TerminologyService struct {
	provider    providers.TerminologyProvider
	concurrency int
	callTimeout time.Duration
}

// NewTerminologyService creates a new terminology service
func NewTerminologyService(provider providers.TerminologyProvider, concurrency int, callTimeout time.Duration) *TerminologyService {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &TerminologyService{
		provider:    provider,
		concurrency: clampConcurrency(concurrency),
		callTimeout: callTimeout,
	}
}

// Search returns up to maxResults hits for query. A blank query makes no upstream call.
func (s *TerminologyService) Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []entities.TerminologyHit{}, nil
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	hits, err := s.provider.Search(callCtx, query, maxResults)
	if err != nil {
		if isHardFailure(ctx, err) {
			return nil, hardError(ctx, err)
		}
		logSoftFailure(ctx, icd.SearchEndpoint, query, err)
		return []entities.TerminologyHit{}, nil
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

// ResolveOne takes the top-ranked hit for symptom. Any hit is accepted as
// high confidence; ranking is left to the upstream search.
func (s *TerminologyService) ResolveOne(ctx context.Context, symptom string) (entities.TerminologyMatch, error) {
	hits, err := s.Search(ctx, symptom, 1)
	if err != nil {
		return entities.TerminologyMatch{}, err
	}
	if len(hits) == 0 {
		return entities.NewUnresolvedMatch(symptom), nil
	}
	return entities.NewResolvedMatch(symptom, hits[0]), nil
}

// MapBatch resolves every symptom independently. The output has one match per
// input, in input order.
func (s *TerminologyService) MapBatch(ctx context.Context, symptoms []string) ([]entities.TerminologyMatch, error) {
	matches := make([]entities.TerminologyMatch, len(symptoms))
	if len(symptoms) == 0 {
		return matches, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, symptom := range symptoms {
		g.Go(func() error {
			match, err := s.ResolveOne(gctx, symptom)
			if err != nil {
				return err
			}
			matches[i] = match
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// MapConditions is MapBatch flattened to the condition/code/description view
func (s *TerminologyService) MapConditions(ctx context.Context, conditions []string) ([]entities.ConditionMapping, error) {
	matches, err := s.MapBatch(ctx, conditions)
	if err != nil {
		return nil, err
	}

	mappings := make([]entities.ConditionMapping, len(matches))
	for i, match := range matches {
		mapping := entities.ConditionMapping{Condition: match.Symptom, ICD11Code: match.Code}
		switch {
		case match.Resolved():
			mapping.Description = *match.Title
		case strings.TrimSpace(match.Symptom) == "":
			mapping.Description = DescriptionEmptyQuery
		default:
			mapping.Description = DescriptionNoMatch
		}
		mappings[i] = mapping
	}
	return mappings, nil
}
