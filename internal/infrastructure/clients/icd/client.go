package icd

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/upstream"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	apperrors "github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/errors"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/retry"
)

// SearchEndpoint names the ICD search upstream in logs and metrics
const SearchEndpoint = "icd.search"

var markupPattern = regexp.MustCompile(`<[^>]+>`)

// Client searches the WHO ICD-11 MMS linearization
type Client struct {
	searchURL string
	tokens    providers.TokenSource
	http      *upstream.HTTPClient
	retryCfg  retry.Config
}

var _ providers.TerminologyProvider = (*Client)(nil)

// NewClient creates an ICD-11 search client with the default HTTP timeout and retry policy
func NewClient(searchURL string, tokens providers.TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewClientWithOptions(searchURL, tokens, &http.Client{Timeout: timeout}, retry.UpstreamConfig())
}

// NewClientWithOptions creates a client with an explicit HTTP client and retry policy (useful for tests)
func NewClientWithOptions(searchURL string, tokens providers.TokenSource, httpClient *http.Client, retryCfg retry.Config) *Client {
	return &Client{
		searchURL: searchURL,
		tokens:    tokens,
		http:      upstream.NewHTTPClient(SearchEndpoint, httpClient),
		retryCfg:  retryCfg,
	}
}

type searchResponse struct {
	DestinationEntities []searchEntity `json:"destinationEntities"`
	Error               bool           `json:"error"`
	ErrorMessage        string         `json:"errorMessage"`
}

type searchEntity struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	TheCode string `json:"theCode"`
	Code    string `json:"code"`
}

// Search runs a flexisearch query and returns at most maxResults coded hits in
// upstream ranking order. An empty query returns no hits without a request.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]entities.TerminologyHit, error) {
	query = strings.TrimSpace(query)
	if query == "" || maxResults <= 0 {
		return []entities.TerminologyHit{}, nil
	}

	ctx, span := observability.StartSpan(ctx, "icd.search",
		attribute.String("icd.query", query),
		attribute.Int("icd.max_results", maxResults),
	)
	defer span.End()

	var body searchResponse
	reauthorized := false
	err := retry.DoWithLog(ctx, c.retryCfg, SearchEndpoint, func() error {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			if apperrors.IsAuth(err) {
				return retry.Permanent(err)
			}
			return err
		}

		req, err := c.newSearchRequest(ctx, query, token.Value)
		if err != nil {
			return retry.Permanent(err)
		}

		body = searchResponse{}
		err = c.http.DoJSON(ctx, req, &body)
		if upstream.StatusCode(err) == http.StatusUnauthorized && !reauthorized {
			// Token revoked server-side before its expiry; exchange once more.
			reauthorized = true
			c.tokens.Invalidate(token)
			return err
		}
		return upstream.Retryable(err)
	}, func(attempt int, err error, next time.Duration) {
		observability.LoggerFromContext(ctx).Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", next).
			Str("query", query).
			Msg("Retrying ICD search")
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if body.Error {
		return nil, apperrors.NewLookupError("icd search returned error", &upstream.DecodeError{
			Endpoint: SearchEndpoint,
			Err:      errString(body.ErrorMessage),
		})
	}

	hits := make([]entities.TerminologyHit, 0, maxResults)
	for _, entity := range body.DestinationEntities {
		if len(hits) == maxResults {
			break
		}
		code := entity.TheCode
		if code == "" {
			code = entity.Code
		}
		title := StripMarkup(entity.Title)
		if code == "" || title == "" {
			continue
		}
		hits = append(hits, entities.TerminologyHit{
			Code:      code,
			Title:     title,
			Reference: entity.ID,
		})
	}
	span.SetAttributes(attribute.Int("icd.hits", len(hits)))
	return hits, nil
}

func (c *Client) newSearchRequest(ctx context.Context, query, bearer string) (*http.Request, error) {
	parsed, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, err
	}
	params := parsed.Query()
	params.Set("q", query)
	params.Set("useFlexisearch", "true")
	params.Set("flatResults", "true")
	params.Set("highlightingEnabled", "false")
	parsed.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("API-Version", "v2")
	return req, nil
}

// StripMarkup removes HTML tags such as <em class='found'> from an ICD title
func StripMarkup(title string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(title, ""))
}

type errString string

func (e errString) Error() string {
	if e == "" {
		return "unspecified upstream error"
	}
	return string(e)
}
