package types

import "time"

// RunMode selects whether a sync run mutates the catalog.
type RunMode string

// Sync run modes.
const (
	ModePreview RunMode = "preview"
	ModeApply   RunMode = "apply"
)

// RunStatus is the lifecycle state of a sync run. Running is the only
// non-terminal state and every run must leave it, even on failure.
type RunStatus string

// Sync run states.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunCounters aggregates per-run outcome counts. They are the audit trail's
// summary and are persisted with the run even when it fails partway.
type RunCounters struct {
	Processed       int `json:"processed"`
	Matched         int `json:"matched"`
	QueuedForReview int `json:"queued_for_review"`
	Rejected        int `json:"rejected"`
	NewlyInStock    int `json:"newly_in_stock"`
	NewlyOutOfStock int `json:"newly_out_of_stock"`
	Failed          int `json:"failed"`
}

// SyncRun is the persisted audit record of one engine execution.
type SyncRun struct {
	ID        string      `json:"id"`
	Mode      RunMode     `json:"mode"`
	Status    RunStatus   `json:"status"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Counters  RunCounters `json:"counters"`
	Details   string      `json:"details,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RecordOutcome classifies how one listing fared in a run.
type RecordOutcome string

// Per-record outcomes collected into run diagnostics.
const (
	OutcomeApplied     RecordOutcome = "applied"
	OutcomeQueued      RecordOutcome = "queued"
	OutcomeRejected    RecordOutcome = "rejected"
	OutcomeUnscoreable RecordOutcome = "unscoreable"
	OutcomeFailed      RecordOutcome = "failed"
)

// RecordResult is the first-class per-listing result collected into a run's
// diagnostics, replacing log-line-only error reporting.
type RecordResult struct {
	Listing  string        `json:"listing"`
	Source   string        `json:"source"`
	Outcome  RecordOutcome `json:"outcome"`
	MotorID  int64         `json:"motor_id,omitempty"`
	Score    int           `json:"score,omitempty"`
	Quantity int           `json:"quantity,omitempty"`
	Error    string        `json:"error,omitempty"`
}
