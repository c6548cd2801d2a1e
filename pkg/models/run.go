package models

import "time"

// RunStatus distinguishes a normal batch from a "nothing found" outcome.
type RunStatus string

const (
	RunOK        RunStatus = "ok"
	RunNoResults RunStatus = "no_results"
)

// BatchAggregates summarises a whole batch for comparative display.
type BatchAggregates struct {
	Distribution    map[Sentiment]int `json:"distribution"`
	Overall         Sentiment         `json:"overall"`
	CommonTopics    []string          `json:"common_topics,omitempty"`
	SourceCounts    map[string]int    `json:"source_counts,omitempty"`
	MeanCredibility float64           `json:"mean_credibility"`
}

// RunResult is everything one pipeline invocation reports back to the caller:
// the ordered batch, how much of the requested coverage was achieved, and
// batch-level aggregates.
type RunResult struct {
	BatchID    string           `json:"batch_id"`
	Query      string           `json:"query"`
	Status     RunStatus        `json:"status"`
	Batch      *ResultBatch     `json:"batch"`
	Requested  int              `json:"requested"`
	Skipped    int              `json:"skipped"` // candidates dropped by soft failures
	Aggregates *BatchAggregates `json:"aggregates,omitempty"`
	FromCache  bool             `json:"from_cache,omitempty"`
	Duration   time.Duration    `json:"duration"`
	StartedAt  time.Time        `json:"started_at"`
}

// PartialCoverage reports whether fewer articles than requested made it
// into the batch.
func (r *RunResult) PartialCoverage() bool {
	return r.Batch.Len() < r.Requested
}
