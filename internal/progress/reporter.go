package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter reports progress of a single long-running step.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
}

// CLIProgress renders a single progress bar on stderr.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a CLI progress reporter.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Start initializes the bar. A total of -1 renders a spinner.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the given position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes and clears the bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error aborts the bar and reports the failure.
func (p *CLIProgress) Error(err error) {
	if p.bar != nil {
		_ = p.bar.Exit()
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

// NoopProgress discards all progress events. Used when stderr is not a
// terminal or in scripted runs.
type NoopProgress struct{}

func (NoopProgress) Start(int64, string) {}
func (NoopProgress) Update(int64)        {}
func (NoopProgress) Finish()             {}
func (NoopProgress) Error(error)         {}
