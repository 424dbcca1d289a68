package models

// FacetCount is a single countable filter value.
type FacetCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FacetCatalog is the nested label/count structure returned by the
// facets endpoint. Facets maps category -> facet -> subfacet counts;
// TrialIDs lists per-trial file counts for the trial-id filter column.
type FacetCatalog struct {
	TrialIDs []FacetCount                       `json:"trial_ids"`
	Facets   map[string]map[string][]FacetCount `json:"facets"`
}

// TrialFileCount reports the file count for a trial id, or -1 if the
// trial is not present in the catalogue.
func (c *FacetCatalog) TrialFileCount(trialID string) int {
	for _, fc := range c.TrialIDs {
		if fc.Label == trialID {
			return fc.Count
		}
	}
	return -1
}
