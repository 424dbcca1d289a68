package browse

import (
	"context"
	"errors"
	"sync"

	"github.com/trialpoint/trialctl/internal/api"
	"github.com/trialpoint/trialctl/internal/logging"
	"github.com/trialpoint/trialctl/internal/query"
)

// ErrSuperseded cancels an in-flight fetch when a newer request for the
// same view replaces it. Callers distinguish it from user cancellation
// via context.Cause.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Phase tags why the controller is (or was last) fetching. A filter or
// sort change re-homes the view to page zero; a page change keeps the
// filter set and moves within it.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFiltering
	PhasePaginating
)

func (p Phase) String() string {
	switch p {
	case PhaseFiltering:
		return "filtering"
	case PhasePaginating:
		return "paginating"
	default:
		return "idle"
	}
}

// Result is one page of fetched rows plus the total match count.
type Result[T any] struct {
	Rows  []T
	Total int
}

// FetchFunc retrieves one page for the given params.
type FetchFunc[T any] func(ctx context.Context, params api.ListParams) (Result[T], error)

// Snapshot is a point-in-time copy of the controller's view state.
type Snapshot[T any] struct {
	Rows    []T
	Total   int
	Page    int
	Phase   Phase
	Loading bool
}

// Controller drives paginated fetches for one listing view. Every
// input change (filters, sort, page) starts a new fetch generation and
// cancels the previous one; only the newest generation may commit its
// result, so rapid input changes settle on the last request issued.
type Controller[T any] struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	fetch    FetchFunc[T]
	store    *query.Store
	pageSize int
	logger   *logging.Logger
	baseCtx  context.Context

	generation uint64
	cancel     context.CancelCauseFunc

	rows    []T
	total   int
	phase   Phase
	loading bool
}

// NewController creates a controller over the given store. ctx bounds
// the lifetime of all fetches the controller issues.
func NewController[T any](ctx context.Context, fetch FetchFunc[T], store *query.Store, pageSize int, logger *logging.Logger) *Controller[T] {
	return &Controller[T]{
		fetch:    fetch,
		store:    store,
		pageSize: pageSize,
		logger:   logger,
		baseCtx:  ctx,
	}
}

// Snapshot returns a copy of the current view state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Rows:    append([]T(nil), c.rows...),
		Total:   c.total,
		Page:    c.store.State().Page,
		Phase:   c.phase,
		Loading: c.loading,
	}
}

// SetFilters replaces the trial id and facet selections, re-homes the
// view to page zero, and starts a filtering fetch.
func (c *Controller[T]) SetFilters(trialIDs, facets []string) error {
	if err := c.store.Update(func(s *query.State) {
		s.TrialIDs = trialIDs
		s.Facets = facets
		s.Page = 0
	}); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseFiltering
	c.dispatchLocked()
	return nil
}

// SetSort replaces the active sort and re-homes to page zero. Sort
// changes behave like filter changes: the row set is reordered, so the
// current page offset is meaningless.
func (c *Controller[T]) SetSort(field string, descending bool) error {
	if err := c.store.Update(func(s *query.State) {
		s.SortField = field
		s.SortDesc = descending
		s.Page = 0
	}); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseFiltering
	c.dispatchLocked()
	return nil
}

// SetPage moves to the requested page within the current filter set.
// Negative pages clamp to zero before any request is issued.
func (c *Controller[T]) SetPage(page int) error {
	if page < 0 {
		page = 0
	}
	if err := c.store.Update(func(s *query.State) {
		s.Page = page
	}); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhasePaginating
	c.dispatchLocked()
	return nil
}

// Refresh refetches the current page with the current filters.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhasePaginating
	c.dispatchLocked()
}

// Wait blocks until all dispatched fetches (including re-fetches
// triggered by out-of-range page resets) have finished.
func (c *Controller[T]) Wait() {
	c.wg.Wait()
}

// dispatchLocked starts a new fetch generation. The previous in-flight
// fetch, if any, is cancelled with ErrSuperseded; its result will also
// be discarded by the generation check even if it was already computed.
// Displayed rows are cleared so callers render a loading state instead
// of data from an older selection. Caller holds c.mu.
func (c *Controller[T]) dispatchLocked() {
	c.generation++
	gen := c.generation

	if c.cancel != nil {
		c.cancel(ErrSuperseded)
	}
	fetchCtx, cancel := context.WithCancelCause(c.baseCtx)
	c.cancel = cancel

	c.rows = nil
	c.loading = true

	st := c.store.State()
	direction := "asc"
	if st.SortDesc {
		direction = "desc"
	}
	params := api.ListParams{
		Page:          st.Page,
		PageSize:      c.pageSize,
		SortField:     st.SortField,
		SortDirection: direction,
		TrialIDs:      st.TrialIDs,
		Facets:        st.Facets,
	}

	c.wg.Add(1)
	go c.run(fetchCtx, gen, params)
}

func (c *Controller[T]) run(ctx context.Context, gen uint64, params api.ListParams) {
	defer c.wg.Done()

	result, err := c.fetch(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// A newer request owns the view now.
		return
	}

	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) || errors.Is(err, context.Canceled) {
			return
		}
		// Fetch failures keep the loading state rather than tearing the
		// view down; the next input change retries naturally.
		if c.logger != nil {
			c.logger.Error().Err(err).
				Int("page", params.Page).
				Str("phase", c.phase.String()).
				Msg("page fetch failed")
		}
		return
	}

	// An out-of-range page (stale session, shrunken result set) re-homes
	// to page zero and refetches under a fresh generation.
	if params.Page > 0 && params.Page*c.pageSize >= result.Total {
		if c.logger != nil {
			c.logger.Debug().
				Int("page", params.Page).
				Int("total", result.Total).
				Msg("requested page beyond result set, resetting to first page")
		}
		if err := c.store.Update(func(s *query.State) { s.Page = 0 }); err != nil && c.logger != nil {
			c.logger.Error().Err(err).Msg("failed to persist page reset")
		}
		c.dispatchLocked()
		return
	}

	c.rows = result.Rows
	c.total = result.Total
	c.phase = PhaseIdle
	c.loading = false
}
