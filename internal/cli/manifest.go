package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/constants"
	"github.com/trialpoint/trialctl/internal/manifest"
	"github.com/trialpoint/trialctl/internal/progress"
	"github.com/trialpoint/trialctl/internal/table"
)

// newManifestCmd creates the manifest command group.
func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Generate and inspect download manifests",
	}
	cmd.AddCommand(newManifestGenerateCmd())
	cmd.AddCommand(newManifestShowCmd())
	return cmd
}

func newManifestGenerateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate <file-id>...",
		Short: "Generate a tab-separated manifest for the given file ids",
		Long: `Generate a download manifest for the given file ids.

The portal returns a tab-separated blob listing each file's object URL.
The manifest endpoint is heavily rate-limited; batch your selections
rather than generating one manifest per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newAPIClient()
			if err != nil {
				return err
			}

			// The manifest endpoint is slow for large selections; show a
			// spinner so the wait does not look like a hang.
			reporter := progress.NewCLIProgress()
			reporter.Start(-1, fmt.Sprintf("generating manifest for %d file(s)", len(args)))
			blob, err := client.GenerateManifest(GetContext(), args)
			if err != nil {
				reporter.Error(err)
				return fmt.Errorf("failed to generate manifest: %w", err)
			}
			reporter.Finish()

			// Parse before saving so a malformed response never lands on disk.
			entries, err := manifest.Parse(blob)
			if err != nil {
				return fmt.Errorf("portal returned a malformed manifest: %w", err)
			}

			if output == "" {
				dir := cfg.Download.OutputDir
				if dir == "" {
					dir = "."
				}
				output = filepath.Join(dir, constants.ManifestFilename)
			}
			if err := manifest.Save(output, blob); err != nil {
				return err
			}

			GetLogger().Info().
				Int("files", len(entries)).
				Str("path", output).
				Msg("manifest saved")
			fmt.Printf("Manifest with %d file(s), %s total, saved to %s\n",
				len(entries), table.FormatSize(manifest.TotalSize(entries)), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Manifest output path (default: <output_dir>/"+constants.ManifestFilename+")")
	return cmd
}

func newManifestShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <manifest-path>",
		Short: "Print the contents of a saved manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%-14s %-40s %-16s %10s\n", "FILE ID", "NAME", "CATEGORY", "SIZE")
			for _, e := range entries {
				fmt.Printf("%-14s %-40s %-16s %10s\n",
					e.FileID, truncateCell(e.FileName, 40), e.DataCategory,
					table.FormatSize(e.FileSizeBytes))
			}
			fmt.Printf("\n%d file(s), %s total\n",
				len(entries), table.FormatSize(manifest.TotalSize(entries)))
			return nil
		},
	}
}
