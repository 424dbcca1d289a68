package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/manifest"
)

// newDownloadCmd creates the download command.
func newDownloadCmd() *cobra.Command {
	var (
		manifestPath  string
		outputDir     string
		maxConcurrent int
		overwrite     bool
		skipExisting  bool
	)

	cmd := &cobra.Command{
		Use:   "download [file-id...]",
		Short: "Download data files from cloud storage",
		Long: `Download data files listed in a manifest.

With file ids as arguments, a manifest is generated first. With
--manifest, a previously saved manifest is used instead. Objects are
fetched directly from their backing store (S3, Azure blob, or https)
with up to --max-concurrent parallel transfers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" && len(args) == 0 {
				return fmt.Errorf("provide file ids or --manifest")
			}
			if overwrite && skipExisting {
				return fmt.Errorf("--overwrite and --skip-existing are mutually exclusive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var entries []manifest.Entry
			if manifestPath != "" {
				entries, err = manifest.Load(manifestPath)
				if err != nil {
					return err
				}
			} else {
				client, _, err := newAPIClient()
				if err != nil {
					return err
				}
				blob, err := client.GenerateManifest(GetContext(), args)
				if err != nil {
					return fmt.Errorf("failed to generate manifest: %w", err)
				}
				entries, err = manifest.Parse(blob)
				if err != nil {
					return fmt.Errorf("portal returned a malformed manifest: %w", err)
				}
			}

			if len(entries) == 0 {
				return fmt.Errorf("manifest lists no files")
			}

			if outputDir == "" {
				outputDir = cfg.Download.OutputDir
			}
			if outputDir == "" {
				outputDir = "."
			}
			if maxConcurrent == 0 {
				maxConcurrent = cfg.Download.MaxConcurrent
			}

			conflictPolicy := conflictPrompt
			if overwrite {
				conflictPolicy = conflictOverwriteAll
			} else if skipExisting {
				conflictPolicy = conflictSkipAll
			}

			return downloadEntries(GetContext(), downloadParams{
				cfg:            cfg,
				entries:        entries,
				outputDir:      outputDir,
				maxConcurrent:  maxConcurrent,
				conflictPolicy: conflictPolicy,
			})
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to a saved manifest (skips manifest generation)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Download directory (default from config)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "Parallel downloads, 1-20 (default from config)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files without prompting")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip files that already exist locally")
	return cmd
}
