package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/api"
	"github.com/trialpoint/trialctl/internal/table"
	"github.com/trialpoint/trialctl/internal/util/filter"
)

// newFilesCmd creates the files command group.
func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Browse downloadable data files",
	}
	cmd.AddCommand(newFilesListCmd())
	return cmd
}

func newFilesListCmd() *cobra.Command {
	var (
		page     int
		pageSize int
		sortBy   string
		desc     bool
		trialIDs []string
		facets   []string

		include    string
		exclude    string
		search     []string
		categories []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List downloadable files, filtered server-side by facets",
		Long: `List downloadable files one page at a time.

Server-side filters (--trial-ids, --facet) narrow the result set before
pagination; client-side filters (--include, --exclude, --search,
--category) narrow the fetched page only.

Facet keys are pipe-delimited: "Assay Type|WES" selects a whole family,
"Assay Type|WES|Source" a single leaf.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newAPIClient()
			if err != nil {
				return err
			}
			if pageSize == 0 {
				pageSize = cfg.Browse.PageSize
			}
			if page < 0 {
				page = 0
			}

			direction := "asc"
			if desc {
				direction = "desc"
			}
			resp, err := client.ListFiles(GetContext(), api.ListParams{
				Page:          page,
				PageSize:      pageSize,
				SortField:     sortBy,
				SortDirection: direction,
				TrialIDs:      trialIDs,
				Facets:        facets,
			})
			if err != nil {
				return fmt.Errorf("failed to list files: %w", err)
			}

			files := filter.Apply(resp.Results, filter.Config{
				Include:    filter.ParsePatternList(include),
				Exclude:    filter.ParsePatternList(exclude),
				Search:     search,
				Categories: categories,
			})

			view := table.NewView(table.FileColumns())
			if sortBy != "" {
				for _, col := range view.Columns() {
					if col.Key == sortBy {
						view.ToggleSort(sortBy)
						if desc {
							view.ToggleSort(sortBy)
						}
						break
					}
				}
			}
			view.Render(os.Stdout, files, page, pageSize, resp.Count)

			if len(files) < len(resp.Results) {
				fmt.Printf("(%d of %d rows on this page match the client-side filters)\n",
					len(files), len(resp.Results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page (default from config)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort field (file_name, trial_id, data_category, file_size_bytes, uploaded_timestamp)")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().StringSliceVar(&trialIDs, "trial-ids", nil, "Restrict to trial ids (comma-separated)")
	cmd.Flags().StringArrayVar(&facets, "facet", nil, `Facet key "category|facet[|subfacet]" (repeatable)`)
	cmd.Flags().StringVar(&include, "include", "", "Include glob patterns, comma-separated (e.g. \"*.bam,*.vcf\")")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Exclude glob patterns, comma-separated")
	cmd.Flags().StringSliceVar(&search, "search", nil, "Case-insensitive name search terms (all must match)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Restrict to data categories")
	return cmd
}

// parseFacetFlag normalizes a user-supplied facet key.
func parseFacetFlag(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" || strings.Count(key, "|") > 2 {
		return "", fmt.Errorf("invalid facet key %q: want \"category|facet\" or \"category|facet|subfacet\"", raw)
	}
	return key, nil
}
