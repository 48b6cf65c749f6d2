package services_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/application/services"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/icd"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/openfda"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/retry"
)

func TestCodingPipeline_EmptyInputShortCircuits(t *testing.T) {
	resolver := &recordingResolver{}
	pipeline := services.NewCodingPipelineService(resolver, resolver, 5)

	result, err := pipeline.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, services.NoSymptomsSummary, result.Summary)
	assert.NotNil(t, result.ICDMappings)
	assert.Empty(t, result.ICDMappings)
	assert.NotNil(t, result.TreatmentPlan)
	assert.Empty(t, result.TreatmentPlan)
	assert.NotEmpty(t, result.RunID)
	assert.Zero(t, resolver.mapCalls)
	assert.Zero(t, resolver.bulkCalls)
}

func TestCodingPipeline_PassesMaxResults(t *testing.T) {
	resolver := &recordingResolver{matches: []entities.TerminologyMatch{entities.NewUnresolvedMatch("x")}}
	pipeline := services.NewCodingPipelineService(resolver, resolver, 5)

	_, err := pipeline.Run(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 5, resolver.lastMaxResults)

	_, err = pipeline.RunWithMax(context.Background(), []string{"x"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, resolver.lastMaxResults)
}

func TestCodingPipeline_AuthErrorIsHardFailure(t *testing.T) {
	resolver := &recordingResolver{err: apperrors.NewAuthError("rejected", nil)}
	pipeline := services.NewCodingPipelineService(resolver, resolver, 5)

	_, err := pipeline.Run(context.Background(), []string{"fever"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Zero(t, resolver.bulkCalls)
}

func TestRenderSummary(t *testing.T) {
	matches := []entities.TerminologyMatch{
		entities.NewResolvedMatch("chest pain", entities.TerminologyHit{Code: "MD30", Title: "Chest pain"}),
		entities.NewUnresolvedMatch("glorp"),
	}
	plan := []entities.TreatmentResult{
		entities.NewTreatmentResult("Chest pain", "MD30", []entities.TreatmentEntry{
			{DrugName: "A"}, {DrugName: "B"}, {DrugName: "C"}, {DrugName: "D"},
		}),
		entities.NewTreatmentResult("Other", "XX00", nil),
	}

	summary := services.RenderSummary(matches, plan)

	expected := strings.Join([]string{
		"=== AI-ASSISTED PRELIMINARY CLINICAL ASSESSMENT ===\n",
		"SYMPTOM → ICD-11 MAPPING:",
		"  • chest pain → [MD30] Chest pain",
		"  • glorp → no ICD-11 match found",
		"\nTREATMENT SUGGESTIONS (FDA-labeled, for clinician review):",
		"  • Chest pain (MD30): A, B, C",
		"  • Other (XX00): No standard treatments found in FDA database.",
		"\n⚠️ DISCLAIMER: This is AI-assisted decision support only. All clinical decisions require licensed clinician review.",
	}, "\n")
	assert.Equal(t, expected, summary)
}

// fakeUpstreams serves the WHO token and search endpoints plus openFDA
type fakeUpstreams struct {
	server         *httptest.Server
	tokenCalls     int32
	searchCalls    int32
	labelCalls     int32
	codes          map[string][2]string
	failingSymptom string
}

func newFakeUpstreams(t *testing.T, codes map[string][2]string) *fakeUpstreams {
	t.Helper()
	f := &fakeUpstreams{codes: codes}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /connect/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("GET /icd/search", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.searchCalls, 1)
		q := r.URL.Query().Get("q")
		if q == f.failingSymptom {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		entry, ok := f.codes[q]
		if !ok {
			_, _ = w.Write([]byte(`{"destinationEntities":[]}`))
			return
		}
		fmt.Fprintf(w, `{"destinationEntities":[{"id":"http://id.who.int/icd/entity/%s","theCode":"%s","title":"<em class='found'>%s</em>"}]}`, entry[0], entry[0], entry[1])
	})
	mux.HandleFunc("GET /drug/label.json", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.labelCalls, 1)
		search := r.URL.Query().Get("search")
		term := strings.TrimSuffix(strings.TrimPrefix(search, `indications_and_usage:"`), `"`)
		fmt.Fprintf(w, `{"results":[{"openfda":{"brand_name":["%s Relief"],"route":["ORAL"]},"indications_and_usage":["For %s"]}]}`, term, term)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newPipelineAgainst(f *fakeUpstreams) *services.CodingPipelineService {
	fastRetry := retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
	session := icd.NewSession(icd.SessionConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     f.server.URL + "/connect/token",
		Scope:        "icdapi_access",
	}, icd.WithTokenHTTPClient(f.server.Client()))
	icdClient := icd.NewClientWithOptions(f.server.URL+"/icd/search", session, f.server.Client(), fastRetry)
	fdaClient := openfda.NewClient(openfda.Options{
		BaseURL:    f.server.URL + "/drug/label.json",
		HTTPClient: f.server.Client(),
		Retry:      fastRetry,
	})

	terminology := services.NewTerminologyService(icdClient, 4, 5*time.Second)
	treatments := services.NewTreatmentService(fdaClient, services.DefaultAliasTable(), 4, 5*time.Second)
	return services.NewCodingPipelineService(terminology, treatments, 5)
}

func TestCodingPipeline_EndToEnd(t *testing.T) {
	f := newFakeUpstreams(t, map[string][2]string{
		"chest pain":          {"MD30", "Chest pain"},
		"shortness of breath": {"MD11.5", "Dyspnoea"},
		"fever":               {"MG26", "Fever"},
	})
	pipeline := newPipelineAgainst(f)

	symptoms := []string{"chest pain", "shortness of breath", "fever"}
	result, err := pipeline.Run(context.Background(), symptoms)
	require.NoError(t, err)

	require.Len(t, result.ICDMappings, 3)
	for i, symptom := range symptoms {
		assert.Equal(t, symptom, result.ICDMappings[i].Symptom)
		assert.Equal(t, entities.ConfidenceHigh, result.ICDMappings[i].Confidence)
	}
	require.Len(t, result.TreatmentPlan, 3)
	assert.Equal(t, "Dyspnoea", result.TreatmentPlan[1].Condition)
	assert.Equal(t, "dyspnoea Relief", result.TreatmentPlan[1].Treatments[0].DrugName)

	assert.Equal(t, 3, strings.Count(result.Summary, "→ ["))
	assert.Contains(t, result.Summary, "  • chest pain → [MD30] Chest pain")
	assert.Contains(t, result.Summary, "  • Fever (MG26): fever Relief")
	assert.True(t, strings.HasSuffix(result.Summary, "All clinical decisions require licensed clinician review."))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls))
}

func TestCodingPipeline_EndToEnd_PartialFailure(t *testing.T) {
	f := newFakeUpstreams(t, map[string][2]string{
		"chest pain": {"MD30", "Chest pain"},
		"fever":      {"MG26", "Fever"},
	})
	f.failingSymptom = "shortness of breath"
	pipeline := newPipelineAgainst(f)

	result, err := pipeline.Run(context.Background(), []string{"chest pain", "shortness of breath", "fever"})
	require.NoError(t, err)

	require.Len(t, result.ICDMappings, 3)
	assert.Equal(t, entities.ConfidenceNone, result.ICDMappings[1].Confidence)
	require.Len(t, result.TreatmentPlan, 2)
	assert.Equal(t, "MD30", result.TreatmentPlan[0].ICDCode)
	assert.Equal(t, "MG26", result.TreatmentPlan[1].ICDCode)
	assert.Contains(t, result.Summary, "  • shortness of breath → no ICD-11 match found")
}
