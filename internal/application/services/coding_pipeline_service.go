package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
)

// Summary text
const (
	NoSymptomsSummary = "No symptoms provided."
	summaryHeader     = "=== AI-ASSISTED PRELIMINARY CLINICAL ASSESSMENT ===\n"
	mappingHeading    = "SYMPTOM → ICD-11 MAPPING:"
	treatmentHeading  = "\nTREATMENT SUGGESTIONS (FDA-labeled, for clinician review):"
	noTreatments      = "No standard treatments found in FDA database."
	summaryDisclaimer = "\n⚠️ DISCLAIMER: This is AI-assisted decision support only. All clinical decisions require licensed clinician review."
	summaryDrugCount  = 3
)

// TerminologyResolver maps symptoms to codes, one match per input in order
type TerminologyResolver interface {
	MapBatch(ctx context.Context, symptoms []string) ([]entities.TerminologyMatch, error)
}

// TreatmentResolver looks up treatments for resolved matches
type TreatmentResolver interface {
	BulkLookup(ctx context.Context, matches []entities.TerminologyMatch, maxResults int) ([]entities.TreatmentResult, error)
}

// CodingPipelineService runs symptoms through terminology and treatment lookup
// and renders a clinician-facing summary.
type CodingPipelineService struct {
	terminology TerminologyResolver
	treatments  TreatmentResolver
	maxResults  int
	newRunID    func() string
}

// NewCodingPipelineService creates a pipeline. maxResults bounds treatments per condition.
func NewCodingPipelineService(terminology TerminologyResolver, treatments TreatmentResolver, maxResults int) *CodingPipelineService {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &CodingPipelineService{
		terminology: terminology,
		treatments:  treatments,
		maxResults:  maxResults,
		newRunID:    uuid.NewString,
	}
}

// Run codes symptoms using the configured treatment bound
func (s *CodingPipelineService) Run(ctx context.Context, symptoms []string) (*entities.PipelineResult, error) {
	return s.RunWithMax(ctx, symptoms, s.maxResults)
}

// RunWithMax codes symptoms with an explicit treatment bound. An empty input
// returns immediately without any lookup. Per-item lookup failures never
// abort the run; an authentication failure does.
func (s *CodingPipelineService) RunWithMax(ctx context.Context, symptoms []string, maxResults int) (*entities.PipelineResult, error) {
	if maxResults <= 0 {
		maxResults = s.maxResults
	}
	runID := s.newRunID()

	if len(symptoms) == 0 {
		return &entities.PipelineResult{
			RunID:         runID,
			ICDMappings:   []entities.TerminologyMatch{},
			TreatmentPlan: []entities.TreatmentResult{},
			Summary:       NoSymptomsSummary,
		}, nil
	}

	ctx = observability.WithRequestIDIfAbsent(ctx, runID)
	ctx, span := observability.StartSpan(ctx, "coding.pipeline.run")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	logger.Info().Str("run_id", runID).Int("symptoms", len(symptoms)).Msg("Mapping symptoms to ICD-11")
	matches, err := s.terminology.MapBatch(ctx, symptoms)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("map symptoms: %w", err)
	}

	logger.Info().Str("run_id", runID).Msg("Looking up treatments")
	plan, err := s.treatments.BulkLookup(ctx, matches, maxResults)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("lookup treatments: %w", err)
	}

	return &entities.PipelineResult{
		RunID:         runID,
		ICDMappings:   matches,
		TreatmentPlan: plan,
		Summary:       RenderSummary(matches, plan),
	}, nil
}

// RenderSummary formats matches and treatment results as plain text. Every
// match gets exactly one line, resolved or not.
func RenderSummary(matches []entities.TerminologyMatch, plan []entities.TreatmentResult) string {
	lines := make([]string, 0, len(matches)+len(plan)+4)
	lines = append(lines, summaryHeader, mappingHeading)

	for _, m := range matches {
		if m.Resolved() {
			lines = append(lines, fmt.Sprintf("  • %s → [%s] %s", m.Symptom, *m.Code, *m.Title))
		} else {
			lines = append(lines, fmt.Sprintf("  • %s → no ICD-11 match found", m.Symptom))
		}
	}

	lines = append(lines, treatmentHeading)
	for _, t := range plan {
		names := t.DrugNames(summaryDrugCount)
		if len(names) == 0 {
			lines = append(lines, fmt.Sprintf("  • %s (%s): %s", t.Condition, t.ICDCode, noTreatments))
			continue
		}
		lines = append(lines, fmt.Sprintf("  • %s (%s): %s", t.Condition, t.ICDCode, strings.Join(names, ", ")))
	}

	lines = append(lines, summaryDisclaimer)
	return strings.Join(lines, "\n")
}
