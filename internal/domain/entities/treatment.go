package entities

const (
	// TreatmentSource tags results that came from the FDA drug label index
	TreatmentSource = "openFDA"

	// TreatmentDisclaimer is attached to every TreatmentResult
	TreatmentDisclaimer = "These are FDA-labeled drug indications for informational purposes only. Treatment decisions must be made by a licensed clinician."

	// UnknownDrugName is used when a label carries no brand, generic or substance name
	UnknownDrugName = "Unknown"
)

// TreatmentEntry is one drug label row relevant to a condition
type TreatmentEntry struct {
	DrugName    string   `json:"drug_name"`
	Purpose     string   `json:"purpose"`
	Indications string   `json:"indications"`
	Warnings    string   `json:"warnings"`
	DosageInfo  string   `json:"dosage_info"`
	Route       []string `json:"route"`
}

// TreatmentResult groups the label rows found for one coded condition
type TreatmentResult struct {
	Condition  string           `json:"condition"`
	ICDCode    string           `json:"icd_code"`
	Treatments []TreatmentEntry `json:"treatments"`
	Source     string           `json:"source"`
	Disclaimer string           `json:"disclaimer"`
}

// NewTreatmentResult fills in the fixed source and disclaimer. A nil entries
// slice is normalized to empty so it serializes as [].
func NewTreatmentResult(condition, code string, entries []TreatmentEntry) TreatmentResult {
	if entries == nil {
		entries = []TreatmentEntry{}
	}
	return TreatmentResult{
		Condition:  condition,
		ICDCode:    code,
		Treatments: entries,
		Source:     TreatmentSource,
		Disclaimer: TreatmentDisclaimer,
	}
}

// DrugNames returns up to n drug names in result order.
func (r TreatmentResult) DrugNames(n int) []string {
	names := make([]string, 0, n)
	for _, t := range r.Treatments {
		if len(names) == n {
			break
		}
		names = append(names, t.DrugName)
	}
	return names
}
