package model

import "time"

// Pipeline names, also used as lock keys.
const (
	PipelineWorld = "world"
	PipelineVN    = "vn"
	PipelineDaily = "daily"
)

// Pipeline statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Run triggers recorded with each summary.
const (
	TriggerAPI       = "api"
	TriggerCLI       = "cli"
	TriggerScheduler = "scheduler"
)

// RunOptions are the inputs of one orchestrated run.
type RunOptions struct {
	// RetentionDays is the window size W; zero means the configured default.
	RetentionDays int
	Trigger       string
	// ForwardFill overrides the configured forward-fill setting when non-nil.
	ForwardFill *bool
}

// WriteCounts reports the outcome of an upsert batch.
type WriteCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Add sums two counts.
func (c WriteCounts) Add(o WriteCounts) WriteCounts {
	return WriteCounts{Inserted: c.Inserted + o.Inserted, Updated: c.Updated + o.Updated}
}

// PruneResult reports one archive-then-delete pass.
type PruneResult struct {
	Entity      string    `json:"entity"`
	Cutoff      time.Time `json:"cutoff"`
	Archived    int       `json:"archived"`
	Deleted     int       `json:"deleted"`
	ArchivePath string    `json:"archivePath,omitempty"`
}

// PipelineResult is the per-pipeline section of a run summary.
type PipelineResult struct {
	Pipeline      string        `json:"pipeline"`
	Status        string        `json:"status"`
	Fetched       int           `json:"fetched"`
	Inserted      int           `json:"inserted"`
	Updated       int           `json:"updated"`
	ForwardFilled int           `json:"forwardFilled"`
	Flagged       int           `json:"flagged"`
	OutsideWindow int           `json:"outsideWindow"`
	Pruned        []PruneResult `json:"pruned"`
	RawFile       string        `json:"rawFile,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
	Error         string        `json:"error,omitempty"`
	ErrorKind     string        `json:"errorKind,omitempty"`
	DurationMs    int64         `json:"durationMs"`
}

// RunSummary is returned by every orchestrated run and stored in pipeline_run.
type RunSummary struct {
	RunID         string           `json:"runId"`
	Pipeline      string           `json:"pipeline"`
	Trigger       string           `json:"trigger"`
	RetentionDays int              `json:"retentionDays"`
	StartedAt     time.Time        `json:"startedAt"`
	FinishedAt    time.Time        `json:"finishedAt"`
	Success       bool             `json:"success"`
	Pipelines     []PipelineResult `json:"pipelines"`
}
