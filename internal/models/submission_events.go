package models

import "time"

// Outcomes recorded on a SubmissionEvent.
const (
	OutcomeSent           = "sent"
	OutcomeRateLimited    = "rate_limited"
	OutcomeInvalid        = "invalid"
	OutcomeNotConfigured  = "not_configured"
	OutcomeProviderFailed = "provider_failed"
)

// SubmissionEvent is the audit record of one POST. It never carries the
// submitter's name, address or message.
type SubmissionEvent struct {
	EventID      string    `json:"event_id"`
	RequestID    string    `json:"request_id,omitempty"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason,omitempty"`
	StatusCode   int       `json:"status_code"`
	ClientBucket int       `json:"client_bucket"`
	OccurredAt   time.Time `json:"occurred_at"`
}
