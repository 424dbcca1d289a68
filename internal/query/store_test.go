package query

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := State{
		TrialIDs:  []string{"NCI-001", "NCI-002"},
		Facets:    []string{"Assay Type|WES|Source", "Clinical Type|Participants"},
		SortField: "uploaded_timestamp",
		SortDesc:  true,
		Page:      3,
	}

	got := Decode(s.Encode())

	if len(got.TrialIDs) != 2 || got.TrialIDs[0] != "NCI-001" {
		t.Errorf("TrialIDs = %v", got.TrialIDs)
	}
	if len(got.Facets) != 2 || got.Facets[0] != "Assay Type|WES|Source" {
		t.Errorf("Facets = %v (pipes must survive the round trip)", got.Facets)
	}
	if got.SortField != "uploaded_timestamp" || !got.SortDesc {
		t.Errorf("sort = %q desc=%v", got.SortField, got.SortDesc)
	}
	if got.Page != 3 {
		t.Errorf("Page = %d, want 3", got.Page)
	}
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	v := State{}.Encode()
	if len(v) != 0 {
		t.Errorf("zero state encoded to %v, want empty", v)
	}
}

func TestDecodeKeepsNegativePage(t *testing.T) {
	v := url.Values{}
	v.Set("page", "-2")
	if got := Decode(v); got.Page != -2 {
		t.Errorf("Page = %d, want -2 (clamping is the controller's job)", got.Page)
	}
}

func TestFiltersEqualIgnoresOrderAndPage(t *testing.T) {
	a := State{TrialIDs: []string{"A", "B"}, Facets: []string{"x|y"}, Page: 0}
	b := State{TrialIDs: []string{"B", "A"}, Facets: []string{"x|y"}, Page: 7, SortDesc: true}
	if !a.FiltersEqual(b) {
		t.Error("states with same filters should compare equal")
	}

	c := State{TrialIDs: []string{"A"}, Facets: []string{"x|y"}}
	if a.FiltersEqual(c) {
		t.Error("states with different trial ids should not compare equal")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")

	st, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	want := State{
		TrialIDs:  []string{"NCI-001"},
		Facets:    []string{"Assay Type|WES"},
		SortField: "file_name",
		Page:      1,
	}
	if err := st.Set(want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	st2, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got := st2.State()
	if !got.FiltersEqual(want) || got.Page != 1 || got.SortField != "file_name" {
		t.Errorf("reloaded state = %+v, want %+v", got, want)
	}
}

func TestStoreCorruptSessionResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if err := os.WriteFile(path, []byte("%%%not-a-query"), 0600); err != nil {
		t.Fatal(err)
	}

	st, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v, corrupt session should reset", err)
	}
	if got := st.State(); len(got.TrialIDs) != 0 || got.Page != 0 {
		t.Errorf("state after corrupt session = %+v, want zero", got)
	}
}

// The controller re-homes the page from its fetch goroutine while the
// interactive loop reads and updates the same store.
func TestStoreConcurrentReadersAndWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	st, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for p := 0; p < 20; p++ {
				if err := st.Update(func(s *State) {
					s.Page = p
					s.TrialIDs = []string{"NCI-" + strconv.Itoa(i)}
				}); err != nil {
					t.Errorf("Update() error = %v", err)
					return
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for p := 0; p < 20; p++ {
				_ = st.State()
			}
		}()
	}
	wg.Wait()

	got := st.State()
	if len(got.TrialIDs) != 1 {
		t.Errorf("TrialIDs = %v, want exactly one writer's value", got.TrialIDs)
	}
}

func TestUpdateMutatesAndSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	st, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := st.Update(func(s *State) { s.TrialIDs = []string{"NCI-009"} }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if string(data) == "" {
		t.Error("session file empty after Update")
	}
}
