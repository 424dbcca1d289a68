package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/api"
)

// newTrialsCmd creates the trials command group.
func newTrialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trials",
		Short: "Browse clinical trials",
	}
	cmd.AddCommand(newTrialsListCmd())
	cmd.AddCommand(newTrialsShowCmd())
	return cmd
}

func newTrialsListCmd() *cobra.Command {
	var (
		page     int
		pageSize int
		sortBy   string
		desc     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trials with participant and file counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newAPIClient()
			if err != nil {
				return err
			}
			if pageSize == 0 {
				pageSize = cfg.Browse.PageSize
			}

			direction := "asc"
			if desc {
				direction = "desc"
			}
			resp, err := client.ListTrials(GetContext(), api.ListParams{
				Page:          page,
				PageSize:      pageSize,
				SortField:     sortBy,
				SortDirection: direction,
			})
			if err != nil {
				return fmt.Errorf("failed to list trials: %w", err)
			}

			fmt.Printf("%-14s %-42s %-12s %12s %10s\n",
				"TRIAL ID", "NAME", "STATUS", "PARTICIPANTS", "SAMPLES")
			for _, trial := range resp.Results {
				fmt.Printf("%-14s %-42s %-12s %12d %10d\n",
					trial.TrialID, truncateCell(trial.TrialName, 42), trial.Status,
					trial.ParticipantCount, trial.SampleCount)
			}
			fmt.Printf("\n%d trials total\n", resp.Count)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows per page (default from config)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort field (e.g. trial_id, participant_count)")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	return cmd
}

func newTrialsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <trial-id>",
		Short: "Show one trial with its file bundle by assay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}

			trial, err := client.GetTrial(GetContext(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get trial %s: %w", args[0], err)
			}

			fmt.Printf("Trial:        %s\n", trial.TrialID)
			fmt.Printf("Name:         %s\n", trial.TrialName)
			fmt.Printf("Status:       %s\n", trial.Status)
			fmt.Printf("Participants: %d\n", trial.ParticipantCount)
			fmt.Printf("Samples:      %d\n", trial.SampleCount)

			if len(trial.FileBundle) == 0 {
				fmt.Fprintln(os.Stdout, "\nNo files available for this trial.")
				return nil
			}

			fmt.Println("\nFile bundle:")
			assays := make([]string, 0, len(trial.FileBundle))
			for assay := range trial.FileBundle {
				assays = append(assays, assay)
			}
			sort.Strings(assays)

			for _, assay := range assays {
				fmt.Printf("  %s:\n", assay)
				kinds := make([]string, 0, len(trial.FileBundle[assay]))
				for kind := range trial.FileBundle[assay] {
					kinds = append(kinds, kind)
				}
				sort.Strings(kinds)
				for _, kind := range kinds {
					fmt.Printf("    %-14s %d file(s)\n", kind, len(trial.FileBundle[assay][kind]))
				}
			}
			return nil
		},
	}
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
