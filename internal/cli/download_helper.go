package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/trialpoint/trialctl/internal/config"
	"github.com/trialpoint/trialctl/internal/constants"
	"github.com/trialpoint/trialctl/internal/manifest"
	"github.com/trialpoint/trialctl/internal/progress"
	"github.com/trialpoint/trialctl/internal/storage"
	"github.com/trialpoint/trialctl/internal/table"
	"github.com/trialpoint/trialctl/internal/validation"
)

// conflictPolicy decides what happens when a target file already exists.
type conflictPolicy int

const (
	conflictPrompt conflictPolicy = iota
	conflictSkipAll
	conflictOverwriteAll
)

type downloadParams struct {
	cfg            *config.Config
	entries        []manifest.Entry
	outputDir      string
	maxConcurrent  int
	conflictPolicy conflictPolicy
}

// downloadEntries fetches every manifest entry with a bounded worker
// pool. Conflicts are resolved up front (prompting is serial and must
// not interleave with progress bars); failures are collected and
// reported together so one bad object does not abort the batch.
func downloadEntries(ctx context.Context, params downloadParams) error {
	if params.maxConcurrent < constants.MinMaxConcurrent || params.maxConcurrent > constants.MaxMaxConcurrent {
		return config.ErrInvalidConcurrency
	}
	if err := os.MkdirAll(params.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log := GetLogger()

	// Resolve name conflicts before any transfer starts.
	var queue []manifest.Entry
	policy := params.conflictPolicy
	for _, entry := range params.entries {
		if err := validation.ValidateFilename(entry.FileName); err != nil {
			return fmt.Errorf("manifest entry %s: %w", entry.FileID, err)
		}
		target := filepath.Join(params.outputDir, entry.FileName)
		if err := validation.ValidatePathInDirectory(target, params.outputDir); err != nil {
			return fmt.Errorf("manifest entry %s: %w", entry.FileID, err)
		}

		if _, err := os.Stat(target); err == nil {
			action, nextPolicy, err := resolveConflict(policy, entry.FileName)
			if err != nil {
				return err
			}
			policy = nextPolicy
			if action == conflictActionSkip {
				log.Info().Str("file", entry.FileName).Msg("skipping existing file")
				continue
			}
		}
		queue = append(queue, entry)
	}

	if len(queue) == 0 {
		fmt.Println("Nothing to download.")
		return nil
	}

	fmt.Printf("Downloading %d file(s), %s total, to %s\n",
		len(queue), table.FormatSize(manifest.TotalSize(queue)), params.outputDir)

	factory := storage.NewFactory(params.cfg)
	ui := progress.NewDownloadUI(len(queue))

	semaphore := make(chan struct{}, params.maxConcurrent)
	var wg sync.WaitGroup
	var failed int32

	for i, entry := range queue {
		wg.Add(1)
		go func(index int, entry manifest.Entry) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				atomic.AddInt32(&failed, 1)
				return
			}

			target := filepath.Join(params.outputDir, entry.FileName)
			bar := ui.AddFileBar(index+1, entry.FileName, target, entry.FileSizeBytes)

			err := downloadOne(ctx, factory, entry, target, bar)
			bar.Complete(err)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				log.Error().Err(err).
					Str("file_id", entry.FileID).
					Str("file", entry.FileName).
					Msg("download failed")
			}
		}(i, entry)
	}

	wg.Wait()
	ui.Wait()

	if n := atomic.LoadInt32(&failed); n > 0 {
		return fmt.Errorf("%d of %d downloads failed", n, len(queue))
	}
	fmt.Printf("Downloaded %d file(s).\n", len(queue))
	return nil
}

// downloadOne streams a single object to a temp file, then renames it
// into place so partial downloads never masquerade as complete files.
func downloadOne(ctx context.Context, factory *storage.Factory, entry manifest.Entry, target string, bar *progress.FileBar) error {
	provider, err := factory.ForURL(entry.ObjectURL)
	if err != nil {
		return err
	}

	tmpPath := target + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	written, err := provider.Download(ctx, entry.ObjectURL, bar.Writer(out))
	closeErr := out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush %s: %w", tmpPath, closeErr)
	}

	if entry.FileSizeBytes > 0 && written != entry.FileSizeBytes {
		os.Remove(tmpPath)
		return fmt.Errorf("size mismatch for %s: got %d bytes, manifest says %d",
			entry.FileName, written, entry.FileSizeBytes)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize %s: %w", target, err)
	}
	return nil
}
