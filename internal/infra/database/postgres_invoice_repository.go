// internal/infra/database/postgres_invoice_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"billing_notification_bot/internal/domain/billing"

	"github.com/lib/pq" // For pq.Array
)

// PostgresInvoiceRepository reads invoices, clients and subscriptions. It never writes.
type PostgresInvoiceRepository struct {
	db *sql.DB
}

func NewPostgresInvoiceRepository(db *sql.DB) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

var openStatuses = []string{string(billing.InvoiceStatusPending), string(billing.InvoiceStatusOverdue)}

// ListOpenInvoices returns pending and overdue invoices. Dates are selected as text so that a
// malformed value reaches the evaluator instead of failing the whole query.
func (r *PostgresInvoiceRepository) ListOpenInvoices(ctx context.Context) ([]*billing.Invoice, error) {
	query := `SELECT id, client_id, subscription_id, amount, due_date::text, COALESCE(issued_date::text, ''), status
               FROM invoices
               WHERE status = ANY($1::varchar[])
               ORDER BY due_date, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(openStatuses))
	if err != nil {
		return nil, fmt.Errorf("error querying open invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*billing.Invoice, 0)
	for rows.Next() {
		inv := &billing.Invoice{}
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.SubscriptionID, &inv.Amount, &inv.DueDate, &inv.IssuedDate, &inv.Status); err != nil {
			return nil, fmt.Errorf("error scanning invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}
	return invoices, nil
}

func (r *PostgresInvoiceRepository) ListClientsByIDs(ctx context.Context, ids []string) (map[string]*billing.Client, error) {
	clients := make(map[string]*billing.Client, len(ids))
	if len(ids) == 0 {
		return clients, nil
	}

	query := `SELECT id, name, COALESCE(phone, '') FROM clients WHERE id = ANY($1::varchar[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying clients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &billing.Client{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, fmt.Errorf("error scanning client row: %w", err)
		}
		clients[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}
	return clients, nil
}

func (r *PostgresInvoiceRepository) ListSubscriptionsByIDs(ctx context.Context, ids []string) (map[string]*billing.Subscription, error) {
	subs := make(map[string]*billing.Subscription, len(ids))
	if len(ids) == 0 {
		return subs, nil
	}

	query := `SELECT id, client_id, COALESCE(plan_name, ''), amount, billing_day
               FROM subscriptions WHERE id = ANY($1::varchar[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying subscriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &billing.Subscription{}
		if err := rows.Scan(&s.ID, &s.ClientID, &s.PlanName, &s.Amount, &s.BillingDay); err != nil {
			return nil, fmt.Errorf("error scanning subscription row: %w", err)
		}
		subs[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}
