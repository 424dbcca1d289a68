package browse

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/trialpoint/trialctl/internal/models"
	"github.com/trialpoint/trialctl/internal/query"
)

func testCatalog() *models.FacetCatalog {
	return &models.FacetCatalog{
		TrialIDs: []models.FacetCount{
			{Label: "NCI-001", Count: 12},
			{Label: "NCI-002", Count: 0},
		},
		Facets: map[string]map[string][]models.FacetCount{
			"Assay Type": {
				"WES": {
					{Label: "Source", Count: 4},
					{Label: "Analysis", Count: 0},
				},
				"RNA": {
					{Label: "Source", Count: 0},
				},
			},
			"Clinical Type": {
				"Participants": {
					{Label: "Participants", Count: 9},
				},
			},
		},
	}
}

func TestReconcileKeepsPositiveLeaves(t *testing.T) {
	kept, pruned := ReconcileSelections(
		[]string{"Assay Type|WES|Source", "Assay Type|WES|Analysis"},
		testCatalog(),
	)

	if !reflect.DeepEqual(kept, []string{"Assay Type|WES|Source"}) {
		t.Errorf("kept = %v", kept)
	}
	if !reflect.DeepEqual(pruned, []string{"Assay Type|WES|Analysis"}) {
		t.Errorf("pruned = %v (zero-count leaf must be pruned)", pruned)
	}
}

func TestReconcileRetainsAbsentCategory(t *testing.T) {
	kept, pruned := ReconcileSelections(
		[]string{"Genomic Source|Tumor"},
		testCatalog(),
	)
	if len(pruned) != 0 || len(kept) != 1 {
		t.Errorf("kept=%v pruned=%v, selections in absent categories must be retained", kept, pruned)
	}
}

func TestReconcilePrunesFamilyWithNoLiveLeaves(t *testing.T) {
	_, pruned := ReconcileSelections([]string{"Assay Type|RNA"}, testCatalog())
	if len(pruned) != 1 {
		t.Errorf("pruned = %v, family with all-zero leaves must be pruned", pruned)
	}

	kept, _ := ReconcileSelections([]string{"Assay Type|WES"}, testCatalog())
	if len(kept) != 1 {
		t.Errorf("kept = %v, family with a live leaf must be retained", kept)
	}
}

func TestReconcilePrunesFacetGoneFromReportedCategory(t *testing.T) {
	_, pruned := ReconcileSelections([]string{"Assay Type|ATAC|Source"}, testCatalog())
	if len(pruned) != 1 {
		t.Errorf("pruned = %v, facet missing from a reported category must be pruned", pruned)
	}
}

func TestToggleZeroCountFacetIsNoOp(t *testing.T) {
	selected := []string{"Clinical Type|Participants|Participants"}

	got := ToggleFacet(selected, "Assay Type|WES|Analysis", testCatalog())
	if !reflect.DeepEqual(got, selected) {
		t.Errorf("selection = %v, toggling a zero-count facet must not change it", got)
	}
}

func TestToggleAddsAndRemoves(t *testing.T) {
	catalog := testCatalog()

	got := ToggleFacet(nil, "Assay Type|WES|Source", catalog)
	if !reflect.DeepEqual(got, []string{"Assay Type|WES|Source"}) {
		t.Errorf("after add: %v", got)
	}

	got = ToggleFacet(got, "Assay Type|WES|Source", catalog)
	if len(got) != 0 {
		t.Errorf("after remove: %v", got)
	}
}

func TestToggleRemovalAllowedEvenWhenDead(t *testing.T) {
	selected := []string{"Assay Type|WES|Analysis"}
	got := ToggleFacet(selected, "Assay Type|WES|Analysis", testCatalog())
	if len(got) != 0 {
		t.Errorf("selection = %v, removal must always be allowed", got)
	}
}

func TestFacetProviderPrunesStaleSelections(t *testing.T) {
	store, err := query.NewStore(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(query.State{
		Facets: []string{"Assay Type|WES|Source", "Assay Type|WES|Analysis"},
		Page:   2,
	}); err != nil {
		t.Fatal(err)
	}

	var calls int
	provider := NewFacetProvider(func(ctx context.Context, trialIDs, facets []string) (*models.FacetCatalog, error) {
		calls++
		return testCatalog(), nil
	}, store)

	if _, err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	st := store.State()
	if !reflect.DeepEqual(st.Facets, []string{"Assay Type|WES|Source"}) {
		t.Errorf("store facets = %v, stale selection not pruned", st.Facets)
	}
	if st.Page != 0 {
		t.Errorf("page = %d, pruning must re-home to the first page", st.Page)
	}
	if calls != 2 {
		t.Errorf("fetch calls = %d, want refetch after pruning", calls)
	}
}

func TestFacetProviderToggle(t *testing.T) {
	store, err := query.NewStore(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatal(err)
	}

	provider := NewFacetProvider(func(ctx context.Context, trialIDs, facets []string) (*models.FacetCatalog, error) {
		return testCatalog(), nil
	}, store)
	if _, err := provider.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	changed, err := provider.Toggle("Assay Type|WES|Source")
	if err != nil || !changed {
		t.Fatalf("Toggle() = %v, %v; want changed", changed, err)
	}

	changed, err = provider.Toggle("Assay Type|WES|Analysis")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("toggling a zero-count facet reported a change")
	}
}
