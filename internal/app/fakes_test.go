package app

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"billing_notification_bot/internal/domain/billing"
	"billing_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// 2026-10-19 is a Monday.
var monday10 = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeRepo struct {
	invoices []*billing.Invoice
	clients  map[string]*billing.Client
	subs     map[string]*billing.Subscription
	err      error
	calls    int
}

func (r *fakeRepo) ListOpenInvoices(ctx context.Context) ([]*billing.Invoice, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.invoices, nil
}

func (r *fakeRepo) ListClientsByIDs(ctx context.Context, ids []string) (map[string]*billing.Client, error) {
	out := make(map[string]*billing.Client)
	for _, id := range ids {
		if c, ok := r.clients[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (r *fakeRepo) ListSubscriptionsByIDs(ctx context.Context, ids []string) (map[string]*billing.Subscription, error) {
	out := make(map[string]*billing.Subscription)
	for _, id := range ids {
		if s, ok := r.subs[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []notification.Candidate
	fail   map[string]error // by client ID
	onSend func(c notification.Candidate)
}

func (s *fakeSender) Send(ctx context.Context, c notification.Candidate) error {
	if s.onSend != nil {
		s.onSend(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[c.Client.ID]; err != nil {
		return err
	}
	s.sent = append(s.sent, c)
	return nil
}

func (s *fakeSender) sentInvoiceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sent))
	for _, c := range s.sent {
		ids = append(ids, c.Invoice.ID)
	}
	return ids
}

func client(id string) *billing.Client {
	return &billing.Client{ID: id, Name: "Cliente " + id, Phone: "+55 11 98765-4321"}
}

// invoiceDue builds a pending invoice due the given number of days after monday10.
func invoiceDue(id, clientID string, days int) *billing.Invoice {
	return &billing.Invoice{
		ID:         id,
		ClientID:   clientID,
		Amount:     100,
		DueDate:    monday10.AddDate(0, 0, days).Format(billing.DateLayout),
		IssuedDate: "2026-09-01",
		Status:     billing.InvoiceStatusPending,
	}
}

func withSubscription(inv *billing.Invoice, subID string) *billing.Invoice {
	inv.SubscriptionID = sql.NullString{String: subID, Valid: true}
	return inv
}
