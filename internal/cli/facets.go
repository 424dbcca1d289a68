package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/models"
)

// newFacetsCmd creates the facets command.
func newFacetsCmd() *cobra.Command {
	var (
		trialIDs []string
		facets   []string
	)

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Show the facet catalogue with file counts",
		Long: `Show the facet catalogue for the given filter set.

Counts are filter-dependent: passing --facet or --trial-ids shows how
many files each remaining facet would match on top of those selections.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}

			for i, raw := range facets {
				key, err := parseFacetFlag(raw)
				if err != nil {
					return err
				}
				facets[i] = key
			}

			catalog, err := client.GetFacets(GetContext(), trialIDs, facets)
			if err != nil {
				return fmt.Errorf("failed to get facets: %w", err)
			}

			printCatalog(catalog, facets)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&trialIDs, "trial-ids", nil, "Restrict counts to trial ids")
	cmd.Flags().StringArrayVar(&facets, "facet", nil, `Applied facet key "category|facet[|subfacet]" (repeatable)`)
	return cmd
}

func printCatalog(catalog *models.FacetCatalog, selected []string) {
	selectedSet := make(map[string]bool, len(selected))
	for _, key := range selected {
		selectedSet[key] = true
	}

	if len(catalog.TrialIDs) > 0 {
		fmt.Println("Trials:")
		for _, fc := range catalog.TrialIDs {
			fmt.Printf("  %-30s %6d\n", fc.Label, fc.Count)
		}
		fmt.Println()
	}

	categories := make([]string, 0, len(catalog.Facets))
	for category := range catalog.Facets {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Printf("%s:\n", category)

		names := make([]string, 0, len(catalog.Facets[category]))
		for name := range catalog.Facets[category] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			familyKey := category + "|" + name
			fmt.Printf("  %s%s\n", name, selectionMark(selectedSet[familyKey]))
			for _, fc := range catalog.Facets[category][name] {
				leafKey := familyKey + "|" + fc.Label
				fmt.Printf("    %-28s %6d%s\n", fc.Label, fc.Count, selectionMark(selectedSet[leafKey]))
			}
		}
	}
}

func selectionMark(selected bool) string {
	if selected {
		return "  [selected]"
	}
	return ""
}
