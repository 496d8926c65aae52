package bulk

import "time"

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// ProgressFunc receives a snapshot after every settled item. Calls for one run
// are serialized, so implementations need no locking of their own, but a slow
// callback slows the run down.
type ProgressFunc func(snapshot ProgressSnapshot)

// ProgressSnapshot is an immutable view of a run's progress.
type ProgressSnapshot struct {
	// Operation is the run's operation tag.
	Operation OperationType

	// Processed is the number of items that have settled so far.
	Processed int

	// Total is the number of input items.
	Total int

	// Percentage is Processed/Total in the range 0-100.
	Percentage float64

	// CurrentBatch is the 1-based batch the last settled item belongs to.
	CurrentBatch int

	// TotalBatches is the number of batches in the run.
	TotalBatches int

	// Succeeded and Failed split Processed by final outcome.
	Succeeded int
	Failed    int

	// Elapsed is the time since the run started.
	Elapsed time.Duration
}

// IsComplete reports whether every input item has settled.
func (s ProgressSnapshot) IsComplete() bool {
	return s.Processed >= s.Total
}

// ItemsPerSecond returns the processing rate so far.
func (s ProgressSnapshot) ItemsPerSecond() float64 {
	seconds := s.Elapsed.Seconds()
	if seconds == 0 {
		return 0
	}
	return float64(s.Processed) / seconds
}

// EstimatedTimeRemaining extrapolates the remaining time from the average
// time per settled item. Returns 0 before the first item settles.
func (s ProgressSnapshot) EstimatedTimeRemaining() time.Duration {
	if s.Processed == 0 || s.Processed >= s.Total {
		return 0
	}
	perItem := s.Elapsed / time.Duration(s.Processed)
	return perItem * time.Duration(s.Total-s.Processed)
}

func percentComplete(processed, total int) float64 {
	if total == 0 {
		return 0
	}
	return (float64(processed) / float64(total)) * percentMultiplier
}
