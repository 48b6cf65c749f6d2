package entities

import "time"

// TokenSafetyMargin is subtracted from the server-reported lifetime so a token
// is never presented in the final minute before it actually expires.
const TokenSafetyMargin = 60 * time.Second

// DefaultTokenLifetime applies when the token endpoint omits expires_in.
const DefaultTokenLifetime = 3600 * time.Second

// AuthToken is a bearer token issued by the terminology authority
type AuthToken struct {
	Value     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthToken builds a token whose expiry already accounts for the safety
// margin. Lifetimes of two margins or less keep half their span, so a freshly
// issued token is always valid at issuedAt.
func NewAuthToken(value string, issuedAt time.Time, lifetime time.Duration) *AuthToken {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	margin := TokenSafetyMargin
	if lifetime <= 2*margin {
		margin = lifetime / 2
	}
	return &AuthToken{
		Value:     value,
		ExpiresAt: issuedAt.Add(lifetime - margin),
	}
}

// ValidAt reports whether the token may still be handed out at now.
func (t *AuthToken) ValidAt(now time.Time) bool {
	return t != nil && t.Value != "" && now.Before(t.ExpiresAt)
}
