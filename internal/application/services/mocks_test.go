package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
)

type mockTerminologyProvider struct {
	mock.Mock
}

func (m *mockTerminologyProvider) Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TerminologyHit), args.Error(1)
}

type mockDrugLabelProvider struct {
	mock.Mock
}

func (m *mockDrugLabelProvider) SearchByIndication(ctx context.Context, term string, limit int) ([]entities.TreatmentEntry, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TreatmentEntry), args.Error(1)
}

// recordingResolver counts calls for the short-circuit checks
type recordingResolver struct {
	mu             sync.Mutex
	mapCalls       int
	bulkCalls      int
	matches        []entities.TerminologyMatch
	plan           []entities.TreatmentResult
	err            error
	lastMaxResults int
}

func (r *recordingResolver) MapBatch(ctx context.Context, symptoms []string) ([]entities.TerminologyMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapCalls++
	return r.matches, r.err
}

func (r *recordingResolver) BulkLookup(ctx context.Context, matches []entities.TerminologyMatch, maxResults int) ([]entities.TreatmentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkCalls++
	r.lastMaxResults = maxResults
	return r.plan, nil
}

func strPtr(s string) *string { return &s }
