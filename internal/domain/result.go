package domain

import (
	"errors"
	"time"
)

// Outcome is how an ingestion cycle ended.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeNoData  Outcome = "no_data"
	OutcomeAborted Outcome = "aborted"
	OutcomeFailed  Outcome = "failed"
	// OutcomeSkipped means another cycle of the same job was still running.
	OutcomeSkipped Outcome = "skipped"
)

// Classify maps a cycle error onto its outcome. A nil error means the cycle wrote.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeWritten
	case errors.Is(err, ErrUnexpectedPayload), errors.Is(err, ErrUpstreamError), errors.Is(err, ErrNoData):
		return OutcomeNoData
	case errors.Is(err, ErrMissingRequired):
		return OutcomeAborted
	case errors.Is(err, ErrAlreadyRunning):
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// WriteReport is what a job body reports about the writes it performed.
type WriteReport struct {
	Path    string
	Written int
	Skipped int
	Deleted int
}

// RunResult is the typed result of one ingestion cycle.
type RunResult struct {
	RunID      string    `json:"runId"`
	Job        string    `json:"job"`
	Path       string    `json:"path,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Written    int       `json:"written"`
	Skipped    int       `json:"skipped"`
	Deleted    int       `json:"deleted"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Err error `json:"-"`
}

// Duration is the wall time the cycle took.
func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Change is the notification emitted after a cycle writes to the store.
type Change struct {
	RunID     string `json:"runId"`
	Job       string `json:"job"`
	Path      string `json:"path"`
	Written   int    `json:"written"`
	Deleted   int    `json:"deleted"`
	UpdatedAt string `json:"updatedAt"`
}
