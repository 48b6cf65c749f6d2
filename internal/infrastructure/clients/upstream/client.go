package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/infrastructure/observability"
)

const maxErrorBody = 512

// HTTPClient performs JSON requests against one upstream and classifies failures
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPClient creates a client; endpoint names the upstream in errors and metrics.
func NewHTTPClient(endpoint string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// DoJSON sends req and decodes a 2xx body into out. Non-2xx responses return
// *StatusError, undecodable bodies *DecodeError.
func (c *HTTPClient) DoJSON(ctx context.Context, req *http.Request, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordLookup(ctx, observability.DefaultMetrics(), c.endpoint, time.Since(start), err)
	}()

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			retryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Endpoint: c.endpoint, Err: err}
	}
	return nil
}
