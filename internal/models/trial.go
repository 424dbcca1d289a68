package models

// Trial represents a clinical trial record returned by the portal API.
type Trial struct {
	TrialID          string               `json:"trial_id"`
	TrialName        string               `json:"trial_name"`
	Status           string               `json:"trial_status,omitempty"`
	ParticipantCount int                  `json:"participant_count"`
	SampleCount      int                  `json:"sample_count"`
	FileBundle       map[string]AssayFiles `json:"file_bundle,omitempty"`
}

// AssayFiles groups a trial's file ids by clinical/sample category
// within a single assay (e.g. "wes" -> {"source": [...], "analysis": [...]}).
type AssayFiles map[string][]string

// TrialListResponse is the paginated envelope for the trials endpoint.
type TrialListResponse struct {
	Count   int     `json:"count"`
	Results []Trial `json:"results"`
}
