// Package audit records access to sensitive admin operations for compliance
// review and incident response. Entries form a tamper-evident hash chain.
package audit

import (
	"time"
)

// Outcome values for audit log entries.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditLog represents a single recorded event.
type AuditLog struct {
	ID         string
	AdminID    string
	EntityType string
	EntityID   string
	Action     string
	Outcome    string // "success" or "failure"
	CreatedAt  time.Time

	// Optional metadata
	RequestID string
	IPAddress string
	UserAgent string

	// SHA-256 hash of the previous entry for tamper detection. Empty on the
	// first entry in the chain.
	PreviousHash string
}

// LogEntry is the input for creating an audit log entry.
type LogEntry struct {
	AdminID    string
	EntityType string
	EntityID   string
	Action     string
	Outcome    string // empty defaults to "success"

	// Optional metadata
	RequestID string
	IPAddress string
	UserAgent string
}
