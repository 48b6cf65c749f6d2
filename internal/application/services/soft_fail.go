package services

import (
	"context"
	"time"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/upstream"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
)

const (
	defaultConcurrency = 4
	maxConcurrency     = 8
	defaultCallTimeout = 15 * time.Second
	defaultMaxResults  = 5
)

// isHardFailure reports whether err must abort the whole run: credentials are
// unusable, or the caller itself gave up.
func isHardFailure(ctx context.Context, err error) bool {
	return apperrors.IsAuth(err) || ctx.Err() != nil
}

// logSoftFailure records a lookup that is being absorbed into an empty result
func logSoftFailure(ctx context.Context, endpoint, query string, err error) {
	kind := upstream.Kind(err)
	observability.RecordLookupFailure(ctx, observability.DefaultMetrics(), endpoint, kind)

	event := observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Str("endpoint", endpoint).
		Str("query", query).
		Str("error_kind", kind)
	if status := upstream.StatusCode(err); status != 0 {
		event = event.Int("status", status)
	}
	event.Msg("Lookup failed, continuing with empty result")
}

func clampConcurrency(n int) int {
	switch {
	case n <= 0:
		return defaultConcurrency
	case n > maxConcurrency:
		return maxConcurrency
	default:
		return n
	}
}

func hardError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !apperrors.IsAuth(err) {
		return ctxErr
	}
	return err
}
