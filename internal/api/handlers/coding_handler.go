package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
)

const (
	defaultMaxResults = 5
	maxMaxResults     = 25
	maxSymptoms       = 50
	maxBodyBytes      = 64 << 10
)

// TerminologyLookup is the subset of the terminology service used over HTTP
type TerminologyLookup interface {
	Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error)
	MapConditions(ctx context.Context, conditions []string) ([]entities.ConditionMapping, error)
}

// TreatmentLookup looks up treatments for one condition
type TreatmentLookup interface {
	Lookup(ctx context.Context, condition, code string, maxResults int) (entities.TreatmentResult, error)
}

// CodingRunner runs the full coding pipeline
type CodingRunner interface {
	RunWithMax(ctx context.Context, symptoms []string, maxResults int) (*entities.PipelineResult, error)
}

// CodingHandler handles clinical coding HTTP requests
type CodingHandler struct {
	terminology TerminologyLookup
	treatments  TreatmentLookup
	pipeline    CodingRunner
}

// NewCodingHandler creates a new coding handler
func NewCodingHandler(terminology TerminologyLookup, treatments TreatmentLookup, pipeline CodingRunner) *CodingHandler {
	return &CodingHandler{
		terminology: terminology,
		treatments:  treatments,
		pipeline:    pipeline,
	}
}

type codingRequest struct {
	Symptoms   []string `json:"symptoms"`
	MaxResults int      `json:"max_results"`
}

type mapRequest struct {
	Conditions []string `json:"conditions"`
}

// RunCoding handles POST /api/coding
func (h *CodingHandler) RunCoding(w http.ResponseWriter, r *http.Request) {
	var req codingRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if len(req.Symptoms) > maxSymptoms {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("at most %d symptoms per request", maxSymptoms))
		return
	}
	maxResults, err := boundMaxResults(req.MaxResults)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.pipeline.RunWithMax(r.Context(), req.Symptoms, maxResults)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// SearchICD handles GET /api/icd/search
func (h *CodingHandler) SearchICD(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q is required")
		return
	}
	maxResults, err := parseMaxResults(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	hits, err := h.terminology.Search(r.Context(), query, maxResults)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": hits,
		"count":   len(hits),
	})
}

// MapConditions handles POST /api/icd/map
func (h *CodingHandler) MapConditions(w http.ResponseWriter, r *http.Request) {
	var req mapRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if len(req.Conditions) == 0 {
		respondWithError(w, http.StatusBadRequest, "conditions is required")
		return
	}
	if len(req.Conditions) > maxSymptoms {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("at most %d conditions per request", maxSymptoms))
		return
	}

	mappings, err := h.terminology.MapConditions(r.Context(), req.Conditions)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"mappings": mappings,
		"count":    len(mappings),
	})
}

// LookupTreatments handles GET /api/treatments
func (h *CodingHandler) LookupTreatments(w http.ResponseWriter, r *http.Request) {
	condition := strings.TrimSpace(r.URL.Query().Get("condition"))
	if condition == "" {
		respondWithError(w, http.StatusBadRequest, "condition is required")
		return
	}
	maxResults, err := parseMaxResults(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.treatments.Lookup(r.Context(), condition, strings.TrimSpace(r.URL.Query().Get("code")), maxResults)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

func parseMaxResults(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("max_results"))
	if raw == "" {
		return defaultMaxResults, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("max_results must be an integer")
	}
	return boundMaxResults(n)
}

func boundMaxResults(n int) (int, error) {
	if n == 0 {
		return defaultMaxResults, nil
	}
	if n < 0 || n > maxMaxResults {
		return 0, apperrors.NewValidationError(fmt.Sprintf("max_results must be between 1 and %d", maxMaxResults))
	}
	return n, nil
}
