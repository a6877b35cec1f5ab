package model

import "time"

// RefreshOutcome is the terminal classification of one refresh cycle.
type RefreshOutcome string

const (
	// OutcomeSkipped: the access token had more than the refresh window
	// left, so no network call was made.
	OutcomeSkipped RefreshOutcome = "skipped"
	// OutcomeSuccess: a strategy returned a valid token payload and the
	// renewed record was persisted.
	OutcomeSuccess RefreshOutcome = "success"
	// OutcomeTransient: every strategy failed with a retryable error;
	// the next scheduled tick retries.
	OutcomeTransient RefreshOutcome = "transient"
	// OutcomeRejected: the provider explicitly rejected the refresh
	// token. Terminal; no further exchange happens until a re-sync or a
	// rotation rewrites the record.
	OutcomeRejected RefreshOutcome = "rejected"
	// OutcomeFatal: the renewed record could not be persisted; requires
	// human intervention.
	OutcomeFatal RefreshOutcome = "fatal"
)

// RefreshAttempt is one audit row: what a refresh cycle decided and why.
type RefreshAttempt struct {
	ID         int64
	OccurredAt time.Time
	Outcome    RefreshOutcome
	// Strategy names the transport that produced the outcome ("direct",
	// "browser"), or is empty for skips and load failures.
	Strategy string
	// TimeLeft is the access token's remaining validity at decision time.
	TimeLeft time.Duration
	Detail   string
}
