// internal/domain/billing/invoice.go
package billing

import "database/sql"

// InvoiceStatus is the lifecycle status stored alongside the invoice.
// It may lag reality by up to one polling interval, so the scheduler treats it as advisory.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsOpen reports whether the invoice still expects a payment.
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// DateLayout is the calendar-date format used for DueDate and IssuedDate.
const DateLayout = "2006-01-02"

// Invoice is a single bill owned by a client, optionally generated from a subscription.
// Dates are kept as text exactly as the store returns them; parsing happens during evaluation.
type Invoice struct {
	ID             string
	ClientID       string
	SubscriptionID sql.NullString
	Amount         float64
	DueDate        string // YYYY-MM-DD
	IssuedDate     string // YYYY-MM-DD, the day the invoice was generated
	Status         InvoiceStatus
}
