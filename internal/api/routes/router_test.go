package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/api/handlers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/api/middleware"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
)

type stubTerminology struct{}

func (stubTerminology) Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error) {
	return []entities.TerminologyHit{}, nil
}

func (stubTerminology) MapConditions(ctx context.Context, conditions []string) ([]entities.ConditionMapping, error) {
	return []entities.ConditionMapping{}, nil
}

type stubTreatments struct{}

func (stubTreatments) Lookup(ctx context.Context, condition, code string, maxResults int) (entities.TreatmentResult, error) {
	return entities.NewTreatmentResult(condition, code, nil), nil
}

type stubPipeline struct{}

func (stubPipeline) RunWithMax(ctx context.Context, symptoms []string, maxResults int) (*entities.PipelineResult, error) {
	return &entities.PipelineResult{Summary: "No symptoms provided."}, nil
}

func newTestHandler() http.Handler {
	coding := handlers.NewCodingHandler(stubTerminology{}, stubTreatments{}, stubPipeline{})
	return NewRouter(coding, []string{"http://app.test"}, nil).SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_PropagatesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/icd/search?q=fever", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	newTestHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_MethodMismatch(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/coding", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/coding", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()

	newTestHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	newTestHandler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
