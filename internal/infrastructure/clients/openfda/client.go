package openfda

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/providers"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/clients/upstream"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/retry"
)

// LabelEndpoint names the drug label upstream in logs and metrics
const LabelEndpoint = "openfda.label"

// Field length caps, in characters
const (
	maxIndicationsLen = 500
	maxWarningsLen    = 300
	maxDosageLen      = 300
	maxPurposeLen     = 200
)

// Client queries the openFDA drug label endpoint
type Client struct {
	baseURL  string
	apiKey   string
	http     *upstream.HTTPClient
	limiter  *rate.Limiter
	retryCfg retry.Config
}

var _ providers.DrugLabelProvider = (*Client)(nil)

// Options configures a Client
type Options struct {
	BaseURL      string
	APIKey       string
	RateLimitRPM int
	HTTPClient   *http.Client
	Retry        retry.Config
}

// NewClient creates an openFDA client. RateLimitRPM <= 0 disables client-side throttling.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.UpstreamConfig()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimitRPM > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RateLimitRPM)), 1)
	}

	return &Client{
		baseURL:  opts.BaseURL,
		apiKey:   strings.TrimSpace(opts.APIKey),
		http:     upstream.NewHTTPClient(LabelEndpoint, opts.HTTPClient),
		limiter:  limiter,
		retryCfg: opts.Retry,
	}
}

type labelResponse struct {
	Results []labelResult `json:"results"`
}

type labelResult struct {
	OpenFDA                 openFDAFields `json:"openfda"`
	IndicationsAndUsage     []string      `json:"indications_and_usage"`
	Warnings                []string      `json:"warnings"`
	DosageAndAdministration []string      `json:"dosage_and_administration"`
	Purpose                 []string      `json:"purpose"`
}

type openFDAFields struct {
	BrandName     []string `json:"brand_name"`
	GenericName   []string `json:"generic_name"`
	SubstanceName []string `json:"substance_name"`
	Route         []string `json:"route"`
}

// SearchByIndication searches labels whose indications_and_usage mentions the
// lowercased term. A 404 from openFDA means no matching labels and yields an empty slice.
func (c *Client) SearchByIndication(ctx context.Context, term string, limit int) ([]entities.TreatmentEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" || limit <= 0 {
		return []entities.TreatmentEntry{}, nil
	}

	ctx, span := observability.StartSpan(ctx, "openfda.search",
		attribute.String("openfda.term", term),
		attribute.Int("openfda.limit", limit),
	)
	defer span.End()

	endpoint, err := c.searchURL(term, limit)
	if err != nil {
		return nil, err
	}

	var body labelResponse
	notFound := false
	err = retry.DoWithLog(ctx, c.retryCfg, LabelEndpoint, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		body = labelResponse{}
		err = c.http.DoJSON(ctx, req, &body)
		if upstream.StatusCode(err) == http.StatusNotFound {
			notFound = true
			return nil
		}
		return upstream.Retryable(err)
	}, func(attempt int, err error, next time.Duration) {
		observability.LoggerFromContext(ctx).Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", next).
			Str("query", term).
			Msg("Retrying openFDA search")
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if notFound {
		return []entities.TreatmentEntry{}, nil
	}

	entries := make([]entities.TreatmentEntry, 0, len(body.Results))
	for _, row := range body.Results {
		if len(entries) == limit {
			break
		}
		entries = append(entries, parseLabel(row))
	}
	span.SetAttributes(attribute.Int("openfda.results", len(entries)))
	return entries, nil
}

func (c *Client) searchURL(term string, limit int) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid openFDA base URL: %w", err)
	}
	params := parsed.Query()
	params.Set("search", fmt.Sprintf("indications_and_usage:%q", sanitizeTerm(strings.ToLower(term))))
	params.Set("limit", strconv.Itoa(limit))
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	parsed.RawQuery = params.Encode()
	return parsed.String(), nil
}

// sanitizeTerm drops characters that would break out of the quoted phrase
func sanitizeTerm(term string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' {
			return -1
		}
		return r
	}, term)
}

func parseLabel(row labelResult) entities.TreatmentEntry {
	route := row.OpenFDA.Route
	if route == nil {
		route = []string{}
	}
	return entities.TreatmentEntry{
		DrugName:    drugName(row.OpenFDA),
		Purpose:     truncate(first(row.Purpose), maxPurposeLen),
		Indications: truncate(first(row.IndicationsAndUsage), maxIndicationsLen),
		Warnings:    truncate(first(row.Warnings), maxWarningsLen),
		DosageInfo:  truncate(first(row.DosageAndAdministration), maxDosageLen),
		Route:       route,
	}
}

func drugName(fields openFDAFields) string {
	for _, names := range [][]string{fields.BrandName, fields.GenericName, fields.SubstanceName} {
		if name := strings.TrimSpace(first(names)); name != "" {
			return name
		}
	}
	return entities.UnknownDrugName
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
