package providers

import (
	"context"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
)

// TokenSource hands out bearer tokens for the terminology API
type TokenSource interface {
	// Token returns a token valid at the time of the call
	Token(ctx context.Context) (*entities.AuthToken, error)

	// Invalidate drops stale if it is still the cached token, so the next
	// call exchanges again. A token refreshed since stale was issued is kept.
	Invalidate(stale *entities.AuthToken)
}

// TerminologyProvider searches a coding system such as ICD-11
type TerminologyProvider interface {
	// Search returns at most maxResults hits in upstream ranking order.
	// Errors are returned as-is; callers decide whether they are fatal.
	Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error)
}
