package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthToken_ValidAt(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	token := NewAuthToken("abc", issued, time.Hour)

	assert.Equal(t, issued.Add(59*time.Minute), token.ExpiresAt)
	assert.True(t, token.ValidAt(issued.Add(58*time.Minute)))
	assert.False(t, token.ValidAt(issued.Add(59*time.Minute)))

	var nilToken *AuthToken
	assert.False(t, nilToken.ValidAt(issued))
}

func TestNewAuthToken_DefaultLifetime(t *testing.T) {
	issued := time.Unix(0, 0)
	token := NewAuthToken("abc", issued, 0)
	assert.Equal(t, issued.Add(DefaultTokenLifetime-TokenSafetyMargin), token.ExpiresAt)
}

func TestNewAuthToken_ShortLifetimeStaysValid(t *testing.T) {
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, lifetime := range []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second} {
		token := NewAuthToken("abc", issued, lifetime)
		assert.True(t, token.ValidAt(issued), "lifetime %s", lifetime)
		assert.Equal(t, issued.Add(lifetime/2), token.ExpiresAt)
	}

	assert.Equal(t, issued.Add(121*time.Second-TokenSafetyMargin), NewAuthToken("abc", issued, 121*time.Second).ExpiresAt)
}

func TestTerminologyMatch_NullInvariant(t *testing.T) {
	unresolved := NewUnresolvedMatch("itchy elbow")
	assert.False(t, unresolved.Resolved())
	assert.Nil(t, unresolved.Title)
	assert.Equal(t, ConfidenceNone, unresolved.Confidence)

	data, err := json.Marshal(unresolved)
	require.NoError(t, err)
	assert.JSONEq(t, `{"symptom":"itchy elbow","icd_code":null,"icd_title":null,"confidence":"none"}`, string(data))

	resolved := NewResolvedMatch("fever", TerminologyHit{Code: "MG26", Title: "Fever of other or unknown origin"})
	require.True(t, resolved.Resolved())
	assert.Equal(t, "MG26", *resolved.Code)
	assert.Equal(t, ConfidenceHigh, resolved.Confidence)
}

func TestTreatmentResult_DrugNames(t *testing.T) {
	result := NewTreatmentResult("Hypertension", "BA00", []TreatmentEntry{
		{DrugName: "A"}, {DrugName: "B"}, {DrugName: "C"}, {DrugName: "D"},
	})
	assert.Equal(t, []string{"A", "B", "C"}, result.DrugNames(3))
	assert.Equal(t, TreatmentSource, result.Source)

	empty := NewTreatmentResult("x", "y", nil)
	assert.NotNil(t, empty.Treatments)
	assert.Empty(t, empty.DrugNames(3))
}
