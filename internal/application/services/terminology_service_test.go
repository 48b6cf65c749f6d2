package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/application/services"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/upstream"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
)

func TestTerminologyService_Search_EmptyQueryNoCall(t *testing.T) {
	provider := new(mockTerminologyProvider)
	service := services.NewTerminologyService(provider, 4, time.Second)

	hits, err := service.Search(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestTerminologyService_Search_SoftFailure(t *testing.T) {
	provider := new(mockTerminologyProvider)
	provider.On("Search", mock.Anything, "cough", 5).
		Return(nil, &upstream.StatusError{Endpoint: "icd.search", StatusCode: 500})

	service := services.NewTerminologyService(provider, 4, time.Second)
	hits, err := service.Search(context.Background(), "cough", 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestTerminologyService_ResolveOne(t *testing.T) {
	provider := new(mockTerminologyProvider)
	provider.On("Search", mock.Anything, "fever", 1).
		Return([]entities.TerminologyHit{{Code: "MG26", Title: "Fever of other or unknown origin"}}, nil)
	provider.On("Search", mock.Anything, "glorp", 1).
		Return([]entities.TerminologyHit{}, nil)

	service := services.NewTerminologyService(provider, 4, time.Second)

	match, err := service.ResolveOne(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, entities.ConfidenceHigh, match.Confidence)
	assert.Equal(t, "MG26", *match.Code)

	miss, err := service.ResolveOne(context.Background(), "glorp")
	require.NoError(t, err)
	assert.Equal(t, entities.ConfidenceNone, miss.Confidence)
	assert.Nil(t, miss.Code)
	assert.Nil(t, miss.Title)
}

func TestTerminologyService_MapBatch_FailSoftPreservesOrder(t *testing.T) {
	provider := new(mockTerminologyProvider)
	provider.On("Search", mock.Anything, "chest pain", 1).
		Return([]entities.TerminologyHit{{Code: "MD30", Title: "Chest pain"}}, nil)
	provider.On("Search", mock.Anything, "shortness of breath", 1).
		Return(nil, &upstream.StatusError{Endpoint: "icd.search", StatusCode: 500})
	provider.On("Search", mock.Anything, "fever", 1).
		Return([]entities.TerminologyHit{{Code: "MG26", Title: "Fever"}}, nil)

	service := services.NewTerminologyService(provider, 2, time.Second)
	matches, err := service.MapBatch(context.Background(), []string{"chest pain", "shortness of breath", "fever"})
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, "chest pain", matches[0].Symptom)
	assert.Equal(t, entities.ConfidenceHigh, matches[0].Confidence)
	assert.Equal(t, "shortness of breath", matches[1].Symptom)
	assert.Equal(t, entities.ConfidenceNone, matches[1].Confidence)
	assert.Equal(t, "fever", matches[2].Symptom)
	assert.Equal(t, "MG26", *matches[2].Code)
}

func TestTerminologyService_MapBatch_AuthErrorAborts(t *testing.T) {
	provider := new(mockTerminologyProvider)
	provider.On("Search", mock.Anything, mock.Anything, 1).
		Return(nil, apperrors.NewAuthError("missing credentials", nil))

	service := services.NewTerminologyService(provider, 4, time.Second)
	_, err := service.MapBatch(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
}

func TestTerminologyService_MapBatch_CallerCancellation(t *testing.T) {
	provider := new(mockTerminologyProvider)
	provider.On("Search", mock.Anything, mock.Anything, 1).
		Return(nil, context.Canceled).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := services.NewTerminologyService(provider, 4, time.Second)
	_, err := service.MapBatch(ctx, []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTerminologyService_MapConditions(t *testing.T) {
	provider := new(mockTerminologyProvider)
	provider.On("Search", mock.Anything, "hypertension", 1).
		Return([]entities.TerminologyHit{{Code: "BA00", Title: "Essential hypertension"}}, nil)
	provider.On("Search", mock.Anything, "xyzzy", 1).
		Return([]entities.TerminologyHit{}, nil)

	service := services.NewTerminologyService(provider, 4, time.Second)
	mappings, err := service.MapConditions(context.Background(), []string{"hypertension", "", "xyzzy"})
	require.NoError(t, err)

	require.Len(t, mappings, 3)
	assert.Equal(t, "BA00", *mappings[0].ICD11Code)
	assert.Equal(t, "Essential hypertension", mappings[0].Description)
	assert.Nil(t, mappings[1].ICD11Code)
	assert.Equal(t, services.DescriptionEmptyQuery, mappings[1].Description)
	assert.Equal(t, services.DescriptionNoMatch, mappings[2].Description)
}
