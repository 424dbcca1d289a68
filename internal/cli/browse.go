package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/api"
	"github.com/trialpoint/trialctl/internal/browse"
	"github.com/trialpoint/trialctl/internal/config"
	"github.com/trialpoint/trialctl/internal/constants"
	"github.com/trialpoint/trialctl/internal/manifest"
	"github.com/trialpoint/trialctl/internal/models"
	"github.com/trialpoint/trialctl/internal/query"
	"github.com/trialpoint/trialctl/internal/table"
)

// newBrowseCmd creates the interactive browse command.
func newBrowseCmd() *cobra.Command {
	var (
		pageSize int
		fresh    bool
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse downloadable files interactively",
		Long: `Browse downloadable files in an interactive table.

Filters, sort, and page are persisted across sessions; start with
--fresh to discard the saved state. Select rows, then download the
selection as a batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newAPIClient()
			if err != nil {
				return err
			}
			if pageSize == 0 {
				pageSize = cfg.Browse.PageSize
			}

			sessionPath, err := config.SessionPath()
			if err != nil {
				return err
			}
			store, err := query.NewStore(sessionPath)
			if err != nil {
				return err
			}
			if fresh {
				if err := store.Set(query.State{}); err != nil {
					return err
				}
			}

			session, err := newBrowseSession(GetContext(), client, cfg, store, pageSize)
			if err != nil {
				return err
			}
			return session.run()
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page (default from config)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard the saved browse session")
	return cmd
}

// browseSession wires the fetch controller, facet provider, request
// cache, and table view into one interactive loop.
type browseSession struct {
	ctx      context.Context
	client   *api.Client
	cfg      *config.Config
	store    *query.Store
	cache    *browse.RequestCache
	ctrl     *browse.Controller[models.DataFile]
	facets   *browse.FacetProvider
	view     *table.View
	pageSize int
}

func newBrowseSession(ctx context.Context, client *api.Client, cfg *config.Config, store *query.Store, pageSize int) (*browseSession, error) {
	s := &browseSession{
		ctx:      ctx,
		client:   client,
		cfg:      cfg,
		store:    store,
		cache:    browse.NewRequestCache(),
		view:     table.NewView(table.FileColumns()),
		pageSize: pageSize,
	}

	s.ctrl = browse.NewController[models.DataFile](ctx, s.fetchPage, store, pageSize, GetLogger())
	s.facets = browse.NewFacetProvider(s.fetchFacets, store)

	// Re-apply the persisted sort to the column headers.
	if st := store.State(); st.SortField != "" {
		s.view.ToggleSort(st.SortField)
		if st.SortDesc {
			s.view.ToggleSort(st.SortField)
		}
	}
	return s, nil
}

// fetchPage serves listing pages through the request cache.
func (s *browseSession) fetchPage(ctx context.Context, params api.ListParams) (browse.Result[models.DataFile], error) {
	key := browse.CacheKey("/api/downloadable_files", params.Encode(), s.cfg.APIToken)
	if cached, ok := s.cache.Get(key); ok {
		resp := cached.(*models.FileListResponse)
		return browse.Result[models.DataFile]{Rows: resp.Results, Total: resp.Count}, nil
	}

	resp, err := s.client.ListFiles(ctx, params)
	if err != nil {
		return browse.Result[models.DataFile]{}, err
	}
	s.cache.Set(key, "/api/downloadable_files", resp, constants.ListCacheTTL)
	return browse.Result[models.DataFile]{Rows: resp.Results, Total: resp.Count}, nil
}

// fetchFacets serves the facet catalogue through the request cache.
func (s *browseSession) fetchFacets(ctx context.Context, trialIDs, facets []string) (*models.FacetCatalog, error) {
	params := api.ListParams{TrialIDs: trialIDs, Facets: facets}
	key := browse.CacheKey("/api/downloadable_files/facets", params.Encode(), s.cfg.APIToken)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.FacetCatalog), nil
	}

	catalog, err := s.client.GetFacets(ctx, trialIDs, facets)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, "/api/downloadable_files/facets", catalog, constants.FacetCacheTTL)
	return catalog, nil
}

func (s *browseSession) run() error {
	// Reconcile the persisted facet selection against the live
	// catalogue before the first fetch; stale selections are pruned.
	if _, err := s.facets.Refresh(s.ctx); err != nil {
		return fmt.Errorf("failed to load facet catalogue: %w", err)
	}

	s.ctrl.Refresh()
	s.ctrl.Wait()
	s.render()

	for {
		if s.ctx.Err() != nil {
			return nil
		}

		fmt.Print("\nbrowse> ")
		line, err := readLine()
		if err != nil {
			return nil // EOF ends the session
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		command, args := fields[0], fields[1:]

		switch command {
		case "q", "quit", "exit":
			return nil
		case "h", "help", "?":
			s.printHelp()
			continue
		case "n", "next":
			err = s.ctrl.SetPage(s.ctrl.Snapshot().Page + 1)
		case "p", "prev":
			err = s.ctrl.SetPage(s.ctrl.Snapshot().Page - 1)
		case "g", "goto":
			err = s.gotoPage(args)
		case "s", "sort":
			err = s.sort(args)
		case "t", "toggle":
			err = s.toggleFacet(strings.Join(args, " "))
		case "i", "trials":
			err = s.setTrials(args)
		case "f", "facets":
			printCatalog(s.facets.Catalog(), s.store.State().Facets)
			continue
		case "x", "select":
			err = s.toggleRow(args)
			if err == nil {
				s.render()
			}
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
			continue
		case "c", "clear":
			s.view.ClearSelection()
			s.render()
			continue
		case "d", "download":
			if err := s.downloadSelection(); err != nil {
				fmt.Printf("error: %v\n", err)
			}
			continue
		case "r", "refresh":
			s.cache.Clear()
			if _, err := s.facets.Refresh(s.ctx); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			s.ctrl.Refresh()
		default:
			fmt.Printf("unknown command %q (h for help)\n", command)
			continue
		}

		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		s.ctrl.Wait()
		s.render()
	}
}

func (s *browseSession) render() {
	snap := s.ctrl.Snapshot()
	fmt.Println()

	st := s.store.State()
	if len(st.TrialIDs) > 0 || len(st.Facets) > 0 {
		var parts []string
		if len(st.TrialIDs) > 0 {
			parts = append(parts, "trials: "+strings.Join(st.TrialIDs, ", "))
		}
		for _, key := range st.Facets {
			parts = append(parts, key)
		}
		fmt.Printf("Filters: %s\n\n", strings.Join(parts, " | "))
	}

	if snap.Loading {
		fmt.Println("(loading...)")
		return
	}
	s.view.Render(os.Stdout, snap.Rows, snap.Page, s.pageSize, snap.Total)
}

func (s *browseSession) printHelp() {
	fmt.Print(`Commands:
  n, p           next / previous page
  g <page>       go to page (1-based)
  s <field>      sort by column (file_name, trial_id, data_category,
                 file_size_bytes, uploaded_timestamp); repeat to flip
  t <facet key>  toggle facet filter, e.g. t Assay Type|WES|Source
  i <ids>        set trial id filter (comma-separated, empty clears)
  f              show facet catalogue with counts
  x <row#>       toggle row selection
  c              clear selection
  d              download selection
  r              refresh (drops cached responses)
  q              quit
`)
}

func (s *browseSession) gotoPage(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: g <page>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid page %q", args[0])
	}
	return s.ctrl.SetPage(n - 1)
}

func (s *browseSession) sort(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: s <field>")
	}
	field, desc, ok := s.view.ToggleSort(args[0])
	if !ok {
		return fmt.Errorf("unknown sort field %q", args[0])
	}
	return s.ctrl.SetSort(field, desc)
}

func (s *browseSession) toggleFacet(raw string) error {
	key, err := parseFacetFlag(raw)
	if err != nil {
		return err
	}

	changed, err := s.facets.Toggle(key)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Printf("facet %q has no matching files, selection unchanged\n", key)
		return nil
	}

	// The catalogue counts depend on the selection; refresh it, then
	// refetch the listing from page zero.
	if _, err := s.facets.Refresh(s.ctx); err != nil {
		return err
	}
	st := s.store.State()
	return s.ctrl.SetFilters(st.TrialIDs, st.Facets)
}

func (s *browseSession) setTrials(args []string) error {
	var trialIDs []string
	if len(args) > 0 {
		for _, part := range strings.Split(strings.Join(args, ""), ",") {
			if id := strings.TrimSpace(part); id != "" {
				trialIDs = append(trialIDs, id)
			}
		}
	}

	if err := s.store.Update(func(st *query.State) {
		st.TrialIDs = trialIDs
		st.Page = 0
	}); err != nil {
		return err
	}
	if _, err := s.facets.Refresh(s.ctx); err != nil {
		return err
	}
	st := s.store.State()
	return s.ctrl.SetFilters(st.TrialIDs, st.Facets)
}

func (s *browseSession) toggleRow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: x <row#>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid row %q", args[0])
	}

	snap := s.ctrl.Snapshot()
	local := n - snap.Page*s.pageSize - 1
	if local < 0 || local >= len(snap.Rows) {
		return fmt.Errorf("row %d is not on this page", n)
	}

	file := snap.Rows[local]
	if s.view.ToggleSelect(file.ID) {
		fmt.Printf("selected %s\n", file.FileName)
	} else {
		fmt.Printf("deselected %s\n", file.FileName)
	}
	return nil
}

func (s *browseSession) downloadSelection() error {
	if !s.view.CanDownload() {
		return fmt.Errorf("nothing selected")
	}

	ids := s.view.Selected()
	if !confirm(fmt.Sprintf("Download %d file(s)?", len(ids))) {
		return nil
	}

	blob, err := s.client.GenerateManifest(s.ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}
	entries, err := manifest.Parse(blob)
	if err != nil {
		return fmt.Errorf("portal returned a malformed manifest: %w", err)
	}

	outputDir := s.cfg.Download.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	err = downloadEntries(s.ctx, downloadParams{
		cfg:            s.cfg,
		entries:        entries,
		outputDir:      outputDir,
		maxConcurrent:  s.cfg.Download.MaxConcurrent,
		conflictPolicy: conflictPrompt,
	})
	if err != nil {
		return err
	}

	s.view.ClearSelection()
	return nil
}
