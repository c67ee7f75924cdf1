package models

import "time"

// Dead letter statuses. Retried and abandoned are terminal.
const (
	DeadLetterStatusPending   = "pending"
	DeadLetterStatusRetried   = "retried"
	DeadLetterStatusAbandoned = "abandoned"
)

// DeadLetterEntry records a recipient whose send exhausted its retries.
// Entries are created exactly once per failed recipient and are only
// mutated by admin-triggered retry or abandon actions.
type DeadLetterEntry struct {
	ID            int64      `json:"id"`
	MessageID     int64      `json:"message_id"`
	Recipient     string     `json:"recipient"`
	Content       string     `json:"content"`
	ErrorMessage  string     `json:"error_message"`
	ErrorType     string     `json:"error_type"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	RetriedAt     *time.Time `json:"retried_at,omitempty"`
}

// CanRetry reports whether an admin retry is still allowed for this entry.
func (e *DeadLetterEntry) CanRetry() bool {
	return e.Status == DeadLetterStatusPending && e.RetryCount < e.MaxRetries
}

// DeadLetterStats holds counts of dead letter entries grouped by status.
type DeadLetterStats struct {
	Pending   int `json:"pending"`
	Retried   int `json:"retried"`
	Abandoned int `json:"abandoned"`
	Total     int `json:"total"`
}
