package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps service errors to HTTP statuses
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())

	var appErr *apperrors.AppError
	switch {
	case apperrors.IsAuth(err):
		logger.Error().Err(err).Msg("Terminology authentication failed")
		respondWithError(w, http.StatusBadGateway, "terminology authentication failed")
	case errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusGatewayTimeout, "upstream lookup timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		logger.Debug().Err(err).Msg("Request cancelled")
	default:
		logger.Error().Err(err).Msg("Request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
