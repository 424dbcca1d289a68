// Package query holds the browse selection state (filters, sort, page)
// encoded as URL query parameters. The encoded query string is the only
// durable client-side view state, mirroring the portal web UI where the
// browser URL is the source of truth across navigation.
package query

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// State is the decoded view selection.
type State struct {
	// TrialIDs are selected trial identifiers.
	TrialIDs []string
	// Facets are selected facet keys, pipe-delimited
	// "category|facet" (family) or "category|facet|subfacet" (leaf).
	Facets []string
	// SortField / SortDesc describe the active sort column.
	SortField string
	SortDesc  bool
	// Page is the zero-based table page.
	Page int
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.TrialIDs = append([]string(nil), s.TrialIDs...)
	out.Facets = append([]string(nil), s.Facets...)
	return out
}

// FiltersEqual reports whether two states select the same filters,
// ignoring sort and page. Order-insensitive.
func (s State) FiltersEqual(other State) bool {
	return sortedJoin(s.TrialIDs) == sortedJoin(other.TrialIDs) &&
		sortedJoin(s.Facets) == sortedJoin(other.Facets)
}

func sortedJoin(vals []string) string {
	c := append([]string(nil), vals...)
	sort.Strings(c)
	return strings.Join(c, "\x00")
}

// Encode serializes the state as URL query values. Trial ids and facet
// keys are comma-joined; facet keys keep their internal pipes.
func (s State) Encode() url.Values {
	v := url.Values{}
	if len(s.TrialIDs) > 0 {
		v.Set("trial_ids", strings.Join(s.TrialIDs, ","))
	}
	if len(s.Facets) > 0 {
		v.Set("facets", strings.Join(s.Facets, ","))
	}
	if s.SortField != "" {
		v.Set("sort_field", s.SortField)
		if s.SortDesc {
			v.Set("sort_direction", "desc")
		} else {
			v.Set("sort_direction", "asc")
		}
	}
	if s.Page != 0 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	return v
}

// Decode parses URL query values into a State. Negative pages are kept
// as-is here; the fetch controller clamps them before issuing a request.
func Decode(v url.Values) State {
	s := State{}
	if raw := v.Get("trial_ids"); raw != "" {
		s.TrialIDs = splitNonEmpty(raw, ",")
	}
	if raw := v.Get("facets"); raw != "" {
		s.Facets = splitNonEmpty(raw, ",")
	}
	s.SortField = v.Get("sort_field")
	s.SortDesc = v.Get("sort_direction") == "desc"
	if raw := v.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			s.Page = n
		}
	}
	return s
}

func splitNonEmpty(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Store persists the state to a session file as a raw query string.
// Writes are last-write-wins. The mutex covers the fetch goroutines:
// the controller re-homes the page from its fetch goroutine while the
// interactive loop reads and updates the same state.
type Store struct {
	mu    sync.Mutex
	path  string
	state State
}

// NewStore creates a store backed by the given session file. The file
// is loaded if present; a missing file yields the zero state.
func NewStore(path string) (*Store, error) {
	st := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	v, err := url.ParseQuery(strings.TrimSpace(string(data)))
	if err != nil {
		// A corrupt session resets to defaults rather than failing the CLI.
		return st, nil
	}
	st.state = Decode(v)
	return st, nil
}

// State returns a copy of the current state.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Clone()
}

// Set replaces the state and persists it.
func (st *Store) Set(s State) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = s.Clone()
	return st.save()
}

// Update applies fn to a copy of the state, then persists the result.
// fn runs under the store lock, so a concurrent writer cannot interleave
// between the read and the write-back.
func (st *Store) Update(fn func(*State)) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.state.Clone()
	fn(&s)
	st.state = s.Clone()
	return st.save()
}

// save writes the session file. Callers hold st.mu.
func (st *Store) save() error {
	if st.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmpPath := st.path + ".tmp"
	encoded := st.state.Encode().Encode()
	if err := os.WriteFile(tmpPath, []byte(encoded+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
