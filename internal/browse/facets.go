// Package browse implements the portal browsing logic: facet
// reconciliation, the paginated fetch controller, and the request cache.
package browse

import (
	"context"
	"strings"

	"github.com/trialpoint/trialctl/internal/models"
	"github.com/trialpoint/trialctl/internal/query"
)

// Facet keys are pipe-delimited: "category|facet" selects a whole facet
// family, "category|facet|subfacet" selects a single leaf.
const facetKeySeparator = "|"

// maxReconcilePasses bounds the prune-refetch loop. Pruning only removes
// entries, so the loop reaches a fixed point well before this.
const maxReconcilePasses = 10

// SplitFacetKey splits a selection key into its parts.
func SplitFacetKey(key string) []string {
	return strings.Split(key, facetKeySeparator)
}

// JoinFacetKey builds a selection key from parts.
func JoinFacetKey(parts ...string) string {
	return strings.Join(parts, facetKeySeparator)
}

// selectionAlive reports whether a selection key still refers to a
// positively counted entry in the catalogue.
//
// Categories entirely absent from the catalogue do NOT invalidate their
// selections: the portal omits categories it has no data for in the
// current context, and dropping those selections would silently widen
// the filter.
func selectionAlive(key string, catalog *models.FacetCatalog) bool {
	parts := SplitFacetKey(key)
	if len(parts) == 0 || catalog == nil || catalog.Facets == nil {
		return true
	}

	facets, ok := catalog.Facets[parts[0]]
	if !ok {
		return true // unknown category: retain
	}

	if len(parts) == 1 {
		for _, counts := range facets {
			if anyPositive(counts) {
				return true
			}
		}
		return false
	}

	counts, ok := facets[parts[1]]
	if !ok {
		return false // category reported, facet gone
	}

	if len(parts) == 2 {
		// Family selection: alive while any leaf under it has a count.
		return anyPositive(counts)
	}

	for _, fc := range counts {
		if fc.Label == parts[2] {
			return fc.Count > 0
		}
	}
	return false
}

func anyPositive(counts []models.FacetCount) bool {
	for _, fc := range counts {
		if fc.Count > 0 {
			return true
		}
	}
	return false
}

// ReconcileSelections partitions previously selected facet keys into
// those still referring to positively counted catalogue entries and
// those to prune.
func ReconcileSelections(selected []string, catalog *models.FacetCatalog) (kept, pruned []string) {
	for _, key := range selected {
		if selectionAlive(key, catalog) {
			kept = append(kept, key)
		} else {
			pruned = append(pruned, key)
		}
	}
	return kept, pruned
}

// ToggleFacet toggles membership of key in the selection set. Removing
// is always allowed; adding a key the catalogue resolves to a zero
// count is a no-op, so dead facets can never enter the persisted set.
func ToggleFacet(selected []string, key string, catalog *models.FacetCatalog) []string {
	for i, existing := range selected {
		if existing == key {
			out := append([]string(nil), selected[:i]...)
			return append(out, selected[i+1:]...)
		}
	}

	if !selectionAlive(key, catalog) {
		return selected
	}
	return append(append([]string(nil), selected...), key)
}

// FacetFetchFunc fetches the facet catalogue for the given filter set.
type FacetFetchFunc func(ctx context.Context, trialIDs, facets []string) (*models.FacetCatalog, error)

// FacetProvider keeps the displayed facet catalogue in sync with the
// filter selection held by the query store, pruning selections whose
// facets disappeared from the refreshed catalogue.
type FacetProvider struct {
	fetch   FacetFetchFunc
	store   *query.Store
	catalog *models.FacetCatalog
}

// NewFacetProvider creates a provider over the given store.
func NewFacetProvider(fetch FacetFetchFunc, store *query.Store) *FacetProvider {
	return &FacetProvider{fetch: fetch, store: store}
}

// Catalog returns the last fetched catalogue, or nil before the first
// successful Refresh.
func (p *FacetProvider) Catalog() *models.FacetCatalog {
	return p.catalog
}

// Refresh fetches the catalogue for the current filters and reconciles
// the stored selection against it. Pruning rewrites the store, which
// changes the filter set the catalogue depends on, so the fetch repeats
// until no selection is pruned. Terminates because each pass only
// removes entries.
func (p *FacetProvider) Refresh(ctx context.Context) (*models.FacetCatalog, error) {
	for pass := 0; pass < maxReconcilePasses; pass++ {
		st := p.store.State()

		catalog, err := p.fetch(ctx, st.TrialIDs, st.Facets)
		if err != nil {
			return nil, err
		}
		p.catalog = catalog

		kept, pruned := ReconcileSelections(st.Facets, catalog)
		if len(pruned) == 0 {
			return catalog, nil
		}

		if err := p.store.Update(func(s *query.State) {
			s.Facets = kept
			s.Page = 0
		}); err != nil {
			return nil, err
		}
	}
	return p.catalog, nil
}

// Toggle flips a facet selection in the store. Returns true when the
// selection actually changed (zero-count adds are no-ops).
func (p *FacetProvider) Toggle(key string) (bool, error) {
	st := p.store.State()
	next := ToggleFacet(st.Facets, key, p.catalog)
	if len(next) == len(st.Facets) {
		same := true
		for i := range next {
			if next[i] != st.Facets[i] {
				same = false
				break
			}
		}
		if same {
			return false, nil
		}
	}

	err := p.store.Update(func(s *query.State) {
		s.Facets = next
		s.Page = 0
	})
	return err == nil, err
}
