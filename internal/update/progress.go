package update

import "github.com/mvp-joe/msgforge/internal/merge"

// ProgressReporter provides callbacks for reporting update progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnPhase is called when an update phase begins, with a human-readable
	// status line.
	OnPhase(message string)

	// OnCollectComplete is called when source file collection finishes.
	OnCollectComplete(fileCount int)

	// OnPreview is called before merging, with the key-set differences the
	// merge is about to apply.
	OnPreview(stats merge.Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnPhase(message string)          {}
func (n *NoOpProgressReporter) OnCollectComplete(fileCount int) {}
func (n *NoOpProgressReporter) OnPreview(stats merge.Stats)     {}
