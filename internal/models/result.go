package models

import "time"

// Run status constants
const (
	StatusSuccess = "SUCCESS" // Both workers finished
	StatusFailed  = "FAILED"  // At least one worker failed
)

// RunSummary is the aggregate outcome of one pipeline run.
type RunSummary struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Root         string        `json:"root" yaml:"root"`
	Produced     int           `json:"produced" yaml:"produced"`           // Paths sent by the producer
	Consumed     int           `json:"consumed" yaml:"consumed"`           // Paths processed by the consumer
	FilesMatched int           `json:"files_matched" yaml:"files_matched"` // Files with at least one hit
	Matches      int           `json:"matches" yaml:"matches"`             // Total positions
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Errors       []string      `json:"errors,omitempty" yaml:"errors,omitempty"` // Worker failures
}

// Failed reports whether any worker failure was recorded.
func (s RunSummary) Failed() bool {
	return len(s.Errors) > 0
}

// Status returns StatusSuccess or StatusFailed.
func (s RunSummary) Status() string {
	if s.Failed() {
		return StatusFailed
	}
	return StatusSuccess
}
