package billing

import (
	"context"
)

// Repository is the read-only invoice source consumed by the notification scheduler.
type Repository interface {
	// ListOpenInvoices returns invoices whose stored status is pending or overdue.
	ListOpenInvoices(ctx context.Context) ([]*Invoice, error)
	// ListClientsByIDs resolves clients keyed by ID. Unknown IDs are simply absent from the map.
	ListClientsByIDs(ctx context.Context, ids []string) (map[string]*Client, error)
	// ListSubscriptionsByIDs resolves subscriptions keyed by ID.
	ListSubscriptionsByIDs(ctx context.Context, ids []string) (map[string]*Subscription, error)
}
