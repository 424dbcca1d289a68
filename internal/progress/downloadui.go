// Package progress renders transfer progress on stderr, keeping stdout
// clean for table output and logs.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// DownloadUI manages one mpb progress bar per concurrent file download.
// On a non-TTY stderr the bars are suppressed and plain start/finish
// lines are printed instead.
type DownloadUI struct {
	progress   *mpb.Progress
	isTerminal bool
	totalFiles int
	completed  int32
}

// FileBar tracks a single file transfer.
type FileBar struct {
	bar       *mpb.Bar
	ui        *DownloadUI
	index     int
	fileName  string
	localPath string
	size      int64
	startTime time.Time
}

// NewDownloadUI creates the UI for a batch of totalFiles downloads.
func NewDownloadUI(totalFiles int) *DownloadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &DownloadUI{
		progress:   p,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar registers a bar for one file.
func (u *DownloadUI) AddFileBar(index int, fileName, localPath string, size int64) *FileBar {
	fb := &FileBar{
		ui:        u,
		index:     index,
		fileName:  fileName,
		localPath: localPath,
		size:      size,
		startTime: time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s", index, u.totalFiles, fileName), decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "Downloading [%d/%d]: %s -> %s\n",
			index, u.totalFiles, fileName, shortPath(localPath))
	}
	return fb
}

// Writer wraps w so bytes written advance the bar.
func (f *FileBar) Writer(w io.Writer) io.Writer {
	if f.bar == nil {
		return w
	}
	return f.bar.ProxyWriter(w)
}

// Complete finishes the bar and prints a one-line summary above the
// remaining bars.
func (f *FileBar) Complete(err error) {
	elapsed := time.Since(f.startTime)

	if err == nil {
		if f.bar != nil {
			f.bar.SetCurrent(f.size)
			f.bar.SetTotal(f.size, true)
		}
		f.write(fmt.Sprintf("done: %s -> %s (%.1f MiB, %s)\n",
			f.fileName, shortPath(f.localPath),
			float64(f.size)/(1024*1024), elapsed.Round(time.Second)))
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		f.write(fmt.Sprintf("failed: %s: %v\n", f.fileName, err))
	}

	atomic.AddInt32(&f.ui.completed, 1)
}

// write goes through mpb's writer on a terminal so the message lands
// above the live bars instead of tearing them.
func (f *FileBar) write(msg string) {
	if f.ui.isTerminal && f.ui.progress != nil {
		f.ui.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(os.Stderr, msg)
}

// Wait blocks until every bar has completed or aborted.
func (u *DownloadUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Completed returns how many files have finished (either way).
func (u *DownloadUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

func shortPath(path string) string {
	dir, file := filepath.Split(filepath.Clean(path))
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) {
		return file
	}
	return filepath.Join(base, file)
}
