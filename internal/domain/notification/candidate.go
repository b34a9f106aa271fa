package notification

import (
	"context"

	"billing_notification_bot/internal/domain/billing"
)

// Candidate is an invoice selected for a message in the current cycle. It is never persisted.
type Candidate struct {
	Invoice      *billing.Invoice
	Client       *billing.Client
	Subscription *billing.Subscription // nil when the invoice has no subscription
	Type         Type
	Tier         int // matched escalation day for TypeOverdue, 0 otherwise
	DaysUntilDue int // negative when overdue
}

// Sender delivers one message for a candidate. A nil error means the message was accepted.
type Sender interface {
	Send(ctx context.Context, c Candidate) error
}
