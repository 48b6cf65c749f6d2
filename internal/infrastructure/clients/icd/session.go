package icd

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/upstream"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
)

const (
	tokenEndpoint       = "icd.token"
	defaultTokenTimeout = 20 * time.Second
)

// SessionConfig holds the OAuth2 client-credentials settings
type SessionConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scope        string
	Timeout      time.Duration
}

// Session caches a WHO API bearer token and refreshes it on demand.
// Concurrent callers that find the token missing or expired share one exchange.
type Session struct {
	cfg    SessionConfig
	client *upstream.HTTPClient
	now    func() time.Time

	mu    sync.RWMutex
	token *entities.AuthToken

	flight singleflight.Group
}

// SessionOption customizes a Session
type SessionOption func(*Session)

// WithClock replaces time.Now, used by expiry tests
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithTokenHTTPClient sets the HTTP client used for token exchanges
func WithTokenHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) { s.client = upstream.NewHTTPClient(tokenEndpoint, c) }
}

var _ providers.TokenSource = (*Session)(nil)

// NewSession creates a token session
func NewSession(cfg SessionConfig, opts ...SessionOption) *Session {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTokenTimeout
	}
	s := &Session{
		cfg:    cfg,
		client: upstream.NewHTTPClient(tokenEndpoint, &http.Client{Timeout: cfg.Timeout}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns the cached token if still valid, otherwise exchanges client
// credentials for a new one. Missing or rejected credentials return an AUTH error.
func (s *Session) Token(ctx context.Context) (*entities.AuthToken, error) {
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return nil, apperrors.NewAuthError("ICD_CLIENT_ID and ICD_CLIENT_SECRET must be set", nil)
	}

	if token := s.cached(); token != nil {
		return token, nil
	}

	// Detached from the first caller's cancellation; bounded by cfg.Timeout.
	ch := s.flight.DoChan("token", func() (interface{}, error) {
		if token := s.cached(); token != nil {
			return token, nil
		}
		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		return s.exchange(exchangeCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entities.AuthToken), nil
	}
}

// Invalidate discards the cached token if it is still stale. Concurrent callers
// rejected with the same token therefore trigger a single re-exchange.
func (s *Session) Invalidate(stale *entities.AuthToken) {
	s.mu.Lock()
	if s.token == stale {
		s.token = nil
	}
	s.mu.Unlock()
}

func (s *Session) cached() *entities.AuthToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token.ValidAt(s.now()) {
		return s.token
	}
	return nil
}

func (s *Session) exchange(ctx context.Context) (*entities.AuthToken, error) {
	ctx, span := observability.StartSpan(ctx, "icd.token_exchange")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"scope":         {s.cfg.Scope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewAuthError("invalid token endpoint", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var body tokenResponse
	err = s.client.DoJSON(ctx, req, &body)
	observability.RecordTokenExchange(ctx, observability.DefaultMetrics(), err == nil && body.AccessToken != "")
	if err != nil {
		observability.RecordError(span, err)
		var se *upstream.StatusError
		var de *upstream.DecodeError
		switch {
		case errors.As(err, &se):
			return nil, apperrors.NewAuthError("token endpoint rejected client credentials", err)
		case errors.As(err, &de):
			return nil, apperrors.NewAuthError("malformed token response", err)
		default:
			logger.Warn().
				Err(err).
				Str("endpoint", tokenEndpoint).
				Str("error_kind", upstream.Kind(err)).
				Msg("Token exchange transport failure")
			return nil, apperrors.NewLookupError("token exchange failed", err)
		}
	}
	if body.AccessToken == "" {
		return nil, apperrors.NewAuthError("token response missing access_token", nil)
	}

	token := entities.NewAuthToken(body.AccessToken, s.now(), time.Duration(body.ExpiresIn)*time.Second)

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	logger.Debug().Time("expires_at", token.ExpiresAt).Msg("Obtained ICD access token")
	return token, nil
}
