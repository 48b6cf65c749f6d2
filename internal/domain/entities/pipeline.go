package entities

// PipelineResult is the output of one coding run
type PipelineResult struct {
	RunID         string             `json:"run_id"`
	ICDMappings   []TerminologyMatch `json:"icd_mappings"`
	TreatmentPlan []TreatmentResult  `json:"treatment_plan"`
	Summary       string             `json:"summary"`
}
