package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"billing_notification_bot/internal/domain/billing"
	"billing_notification_bot/internal/domain/notification"
)

// InvoiceError describes an invoice that could not be evaluated.
type InvoiceError struct {
	InvoiceID string
	Err       error
}

func (e InvoiceError) Error() string {
	return fmt.Sprintf("invoice %s: %v", e.InvoiceID, e.Err)
}

// Evaluation is the outcome of one eligibility pass.
type Evaluation struct {
	Candidates []notification.Candidate
	Invalid    []InvoiceError // malformed invoices, excluded from Candidates
	NoContact  int            // invoices whose client is missing or has no usable phone
}

// Evaluate selects the invoices that need a message today and sorts them by priority.
// Each invoice yields at most one candidate: overdue, then reminder, then new_invoice.
// Overdue invoices are only eligible on the exact escalation days of the policy.
func Evaluate(
	policy notification.Policy,
	invoices []*billing.Invoice,
	clients map[string]*billing.Client,
	subscriptions map[string]*billing.Subscription,
	today time.Time,
) Evaluation {
	var out Evaluation
	today = StartOfDay(today)

	for _, inv := range invoices {
		if inv == nil || !inv.Status.IsOpen() {
			continue
		}

		client := clients[inv.ClientID]
		if !client.CanReceiveMessages() {
			out.NoContact++
			continue
		}

		dueDate, err := parseDate(inv.DueDate, today.Location())
		if err != nil {
			out.Invalid = append(out.Invalid, InvoiceError{InvoiceID: inv.ID, Err: fmt.Errorf("malformed due date: %w", err)})
			continue
		}

		daysUntilDue := DaysBetween(today, dueDate)
		notifType, tier, ok := classify(policy, inv, daysUntilDue, today)
		if !ok {
			continue
		}

		var sub *billing.Subscription
		if inv.SubscriptionID.Valid {
			sub = subscriptions[inv.SubscriptionID.String]
		}

		out.Candidates = append(out.Candidates, notification.Candidate{
			Invoice:      inv,
			Client:       client,
			Subscription: sub,
			Type:         notifType,
			Tier:         tier,
			DaysUntilDue: daysUntilDue,
		})
	}

	sort.SliceStable(out.Candidates, func(i, j int) bool {
		return out.Candidates[i].Type.Priority() < out.Candidates[j].Type.Priority()
	})
	return out
}

func classify(policy notification.Policy, inv *billing.Invoice, daysUntilDue int, today time.Time) (notification.Type, int, bool) {
	switch {
	case daysUntilDue < 0:
		daysOverdue := -daysUntilDue
		if policy.IsEscalationDay(daysOverdue) {
			return notification.TypeOverdue, daysOverdue, true
		}
		// between escalation days an overdue invoice gets nothing, not even a new_invoice notice
		return "", 0, false
	case daysUntilDue <= policy.ReminderLeadDays:
		return notification.TypeReminder, 0, true
	case inv.Status == billing.InvoiceStatusPending && issuedOn(inv, today):
		return notification.TypeNewInvoice, 0, true
	default:
		return "", 0, false
	}
}

func issuedOn(inv *billing.Invoice, today time.Time) bool {
	if inv.IssuedDate == "" {
		return false
	}
	issued, err := parseDate(inv.IssuedDate, today.Location())
	if err != nil {
		return false
	}
	return DaysBetween(issued, today) == 0
}

// parseDate accepts a plain calendar date or a timestamp whose first ten characters are one.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(billing.DateLayout) && s[len(billing.DateLayout)] == 'T' {
		s = s[:len(billing.DateLayout)]
	}
	return time.ParseInLocation(billing.DateLayout, s, loc)
}
