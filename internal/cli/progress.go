package cli

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/msgforge/internal/merge"
)

// CLIProgressReporter renders update phases as spinners on the terminal.
// Each phase replaces the previous spinner; a ticker goroutine animates
// the current one since the update only reports phase boundaries.
type CLIProgressReporter struct {
	quiet bool

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	stopCh chan struct{}
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnPhase(message string) {
	if c.quiet {
		return
	}
	c.stopSpinner()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
	c.stopCh = make(chan struct{})

	go func(bar *progressbar.ProgressBar, stop chan struct{}) {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}(c.bar, c.stopCh)
}

func (c *CLIProgressReporter) OnCollectComplete(fileCount int) {
	if c.quiet {
		return
	}
	c.stopSpinner()
	log.Printf("Found %d source files\n", fileCount)
}

func (c *CLIProgressReporter) OnPreview(stats merge.Stats) {
	if c.quiet {
		return
	}
	c.stopSpinner()
	log.Printf("Changes: %d new, %d obsoleted\n", stats.Added, stats.Obsolete)
}

// Finish stops the active spinner. Call it once the run completes, before
// printing the summary.
func (c *CLIProgressReporter) Finish() {
	if c.quiet {
		return
	}
	c.stopSpinner()
}

func (c *CLIProgressReporter) stopSpinner() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	if c.bar != nil {
		c.bar.Finish()
		fmt.Println()
		c.bar = nil
	}
}
