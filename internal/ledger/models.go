package ledger

import (
	"time"
)

// Run is one recorded stage execution.
type Run struct {
	ID         int64
	RunID      string
	Stage      string
	Kind       string
	DestQuery  string
	StartedAt  time.Time
	FinishedAt time.Time
	Errored    bool
	Succeeded  int
	Skipped    int
	Failed     int
}

// Duration returns the run's wall-clock time.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Total returns the number of elements the run attempted.
func (r Run) Total() int {
	return r.Succeeded + r.Skipped + r.Failed
}
