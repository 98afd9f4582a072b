package domain

import (
	"time"
)

// RunStatus is the lifecycle state of a crawl run.
type RunStatus string

const (
	// RunStatusRunning marks a run that is still in progress.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted marks a run that reached the end of its page
	// range or was cleanly cancelled at a page boundary.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusInterrupted is kept for run-log compatibility with older
	// deployments; the orchestrator finalizes clean cancels as completed.
	RunStatusInterrupted RunStatus = "interrupted"
	// RunStatusError marks a run that hit an unrecoverable failure.
	RunStatusError RunStatus = "error"
)

// CrawlRun is the metadata for one orchestrator execution. It is created at
// run start, mutated as pages complete, and appended to the run log as an
// immutable entry when the run ends, on every exit path.
type CrawlRun struct {
	ID       string   `db:"id"       json:"id"`
	Platform Platform `db:"platform" json:"platform"`
	Keyword  string   `db:"keyword"  json:"keyword"`

	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time"   json:"end_time"`

	// Counters
	PagesRequested int `db:"pages_requested" json:"pages_requested"`
	PagesFetched   int `db:"pages_fetched"   json:"pages_fetched"`
	TotalNew       int `db:"total_new"       json:"total_new"`
	Persisted      int `db:"persisted"       json:"persisted"`
	Failed         int `db:"failed"          json:"failed"`
	Dropped        int `db:"dropped"         json:"dropped"`

	Status       RunStatus `db:"status"        json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
}

// Duration returns the wall-clock duration of the run.
func (r *CrawlRun) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}
