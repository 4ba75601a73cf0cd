package model

import "time"

// RunStatus represents the current state of a scan run. Transitions are
// monotonic: a run never reopens after reaching complete or error.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// QualityFlags marks data-quality caveats recorded during execution.
// They degrade confidence (see scoring) rather than failing the run.
type QualityFlags struct {
	PartialResults bool `json:"partial_results,omitempty"`
}

// ScanRun is a single execution of the scan pipeline for a profile.
// The run row doubles as the async task handle: callers poll its status
// rather than observing a detached callback.
type ScanRun struct {
	ID         string       `json:"id"`
	ProfileID  string       `json:"profile_id"`
	Status     RunStatus    `json:"status"`
	Models     []string     `json:"models"`
	CacheKey   string       `json:"cache_key"`
	ErrorCount int          `json:"error_count"`
	Quality    QualityFlags `json:"quality"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// Finished reports whether the run has reached a terminal status.
func (r *ScanRun) Finished() bool {
	return r.Status == RunStatusComplete || r.Status == RunStatusError
}
