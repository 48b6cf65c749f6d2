package openfda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/internal/domain/entities"
	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/retry"
)

func testClient(server *httptest.Server, apiKey string) *Client {
	return NewClient(Options{
		BaseURL:    server.URL + "/drug/label.json",
		APIKey:     apiKey,
		HTTPClient: server.Client(),
		Retry:      retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2},
	})
}

func TestSearchByIndication_QueryShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/label.json", r.URL.Path)
		assert.Equal(t, `indications_and_usage:"hypertension"`, r.URL.Query().Get("search"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "key-1", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"results":[{"openfda":{"brand_name":["Norvasc"],"route":["ORAL"]},"indications_and_usage":["Hypertension"]}]}`))
	}))
	defer server.Close()

	entries, err := testClient(server, "key-1").SearchByIndication(context.Background(), "Hypertension", 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Norvasc", entries[0].DrugName)
	assert.Equal(t, []string{"ORAL"}, entries[0].Route)
}

func TestSearchByIndication_OmitsEmptyAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["api_key"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	entries, err := testClient(server, "").SearchByIndication(context.Background(), "asthma", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearchByIndication_NotFoundIsEmpty(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`))
	}))
	defer server.Close()

	entries, err := testClient(server, "").SearchByIndication(context.Background(), "zzz", 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchByIndication_ServerErrorAfterRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server, "").SearchByIndication(context.Background(), "pain", 5)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchByIndication_RespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"openfda":{"brand_name":["A"]}},{"openfda":{"brand_name":["B"]}},{"openfda":{"brand_name":["C"]}}]}`))
	}))
	defer server.Close()

	entries, err := testClient(server, "").SearchByIndication(context.Background(), "pain", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestParseLabel_DrugNamePrecedence(t *testing.T) {
	assert.Equal(t, "Brand", drugName(openFDAFields{BrandName: []string{"Brand"}, GenericName: []string{"generic"}}))
	assert.Equal(t, "generic", drugName(openFDAFields{BrandName: []string{}, GenericName: []string{"generic"}}))
	assert.Equal(t, "substance", drugName(openFDAFields{SubstanceName: []string{"substance"}}))
	assert.Equal(t, entities.UnknownDrugName, drugName(openFDAFields{}))
}

func TestParseLabel_Truncation(t *testing.T) {
	row := labelResult{
		IndicationsAndUsage:     []string{strings.Repeat("i", 650)},
		Warnings:                []string{strings.Repeat("w", 400)},
		DosageAndAdministration: []string{strings.Repeat("d", 301)},
		Purpose:                 []string{strings.Repeat("p", 250)},
	}

	entry := parseLabel(row)
	assert.Len(t, entry.Indications, 500)
	assert.Len(t, entry.Warnings, 300)
	assert.Len(t, entry.DosageInfo, 300)
	assert.Len(t, entry.Purpose, 200)
	assert.Equal(t, entities.UnknownDrugName, entry.DrugName)
	assert.NotNil(t, entry.Route)
}

func TestTruncate_CountsRunes(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "short", truncate("short", 10))
}

func TestSanitizeTerm(t *testing.T) {
	assert.Equal(t, "type 2 diabetes", sanitizeTerm(`type 2 "diabetes\`))
}
