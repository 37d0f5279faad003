package entities

import "time"

// Severity is the level of a transient notification.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is an ephemeral status message.
type Notification struct {
	ID        int64
	Message   string
	Severity  Severity
	Duration  time.Duration
	CreatedAt time.Time
}

// ExpiresAt returns the instant the notification stops being visible.
func (n Notification) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}
