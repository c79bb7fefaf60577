package domain

import "time"

// EmailLogStatus marks the outcome recorded in an audit log entry.
type EmailLogStatus string

const (
	EmailLogSent   EmailLogStatus = "sent"
	EmailLogFailed EmailLogStatus = "failed"
)

// EmailLogEntry is one fire-and-forget audit record of a send attempt.
// Entries are informational only; the engine never branches on them.
type EmailLogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Sender    string         `json:"sender"`
	Recipient string         `json:"recipient"`
	Subject   string         `json:"subject"`
	Status    EmailLogStatus `json:"status"`
	Detail    string         `json:"detail,omitempty"`
}
