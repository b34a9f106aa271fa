// internal/domain/notification/shared_types.go
package notification

import "time"

// Type identifies which message variant a candidate receives.
type Type string

const (
	TypeOverdue    Type = "overdue"
	TypeReminder   Type = "reminder"
	TypeNewInvoice Type = "new_invoice"
)

// Priority orders dispatch within a cycle; lower goes first.
func (t Type) Priority() int {
	switch t {
	case TypeOverdue:
		return 1
	case TypeReminder:
		return 2
	case TypeNewInvoice:
		return 3
	default:
		return 99
	}
}

// LogLevel is the severity of an activity log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelError   LogLevel = "error"
)

// LogEntry is a single line of scheduler activity kept for operators.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
}
