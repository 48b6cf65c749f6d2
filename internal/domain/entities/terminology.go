package entities

// Confidence tags how a symptom was resolved
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceNone Confidence = "none"
)

// TerminologyHit is a single ranked ICD-11 search result
type TerminologyHit struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Reference string `json:"uri"`
}

// TerminologyMatch is the resolution of one symptom.
// Code is nil iff Confidence is none; Title is nil iff Code is nil.
type TerminologyMatch struct {
	Symptom    string     `json:"symptom"`
	Code       *string    `json:"icd_code"`
	Title      *string    `json:"icd_title"`
	Confidence Confidence `json:"confidence"`
}

// NewResolvedMatch builds a high-confidence match from the top hit.
func NewResolvedMatch(symptom string, hit TerminologyHit) TerminologyMatch {
	code := hit.Code
	title := hit.Title
	return TerminologyMatch{
		Symptom:    symptom,
		Code:       &code,
		Title:      &title,
		Confidence: ConfidenceHigh,
	}
}

// NewUnresolvedMatch builds the sentinel for a symptom with no usable hit.
func NewUnresolvedMatch(symptom string) TerminologyMatch {
	return TerminologyMatch{Symptom: symptom, Confidence: ConfidenceNone}
}

// Resolved reports whether the match carries a code.
func (m TerminologyMatch) Resolved() bool {
	return m.Code != nil
}

// ConditionMapping is the flattened condition view used by the mapping endpoint.
// Description holds the title, or the reason no code was assigned.
type ConditionMapping struct {
	Condition   string  `json:"condition"`
	ICD11Code   *string `json:"icd11_code"`
	Description string  `json:"description"`
}
