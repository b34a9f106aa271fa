package app

import (
	"context"
	"fmt"
	"time"

	"billing_notification_bot/internal/domain/billing"
	"billing_notification_bot/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CycleResult summarizes one evaluation-and-dispatch pass.
type CycleResult struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Processed    int
	Sent         int
	Skipped      int
	Errors       int
	OutsideHours bool
	Cancelled    bool
	Err          error // cycle-level failure, e.g. the invoice source was unreachable
}

func (r CycleResult) String() string {
	switch {
	case r.OutsideHours:
		return "outside business hours, nothing sent"
	case r.Err != nil:
		return fmt.Sprintf("cycle failed: %v", r.Err)
	}
	s := fmt.Sprintf("processed=%d sent=%d skipped=%d errors=%d", r.Processed, r.Sent, r.Skipped, r.Errors)
	if r.Cancelled {
		s += " (stopped early)"
	}
	return s
}

// CycleExecutor runs a single pass: gate, purge, evaluate, then serial dispatch.
type CycleExecutor struct {
	repo     billing.Repository
	sender   notification.Sender
	dedup    *DedupCache
	activity *ActivityLog
	clock    Clock
	logger   *logrus.Entry
	wait     func(ctx context.Context, d time.Duration) error
}

func NewCycleExecutor(
	repo billing.Repository,
	sender notification.Sender,
	dedup *DedupCache,
	activity *ActivityLog,
	clock Clock,
	logger *logrus.Entry,
) *CycleExecutor {
	return &CycleExecutor{
		repo:     repo,
		sender:   sender,
		dedup:    dedup,
		activity: activity,
		clock:    clock,
		logger:   logger,
		wait:     sleepContext,
	}
}

// RunCycle executes one cycle with the given policy snapshot. It never panics on a
// failed send and returns partial counts when ctx is cancelled between candidates.
func (e *CycleExecutor) RunCycle(ctx context.Context, policy notification.Policy, now time.Time) (res CycleResult) {
	res = CycleResult{ID: uuid.NewString(), StartedAt: now}
	log := e.logger.WithField("cycle_id", res.ID)
	defer func() { res.FinishedAt = e.clock.Now() }()

	if !IsWithinBusinessHours(now, policy.BusinessHours) {
		log.Debug("Outside business hours, skipping cycle")
		res.OutsideHours = true
		return res
	}

	today := StartOfDay(now)
	if purged := e.dedup.PurgeStale(today); purged > 0 {
		log.WithField("purged", purged).Debug("Purged stale dedup entries")
	}

	eval, err := e.evaluate(ctx, policy, today)
	if err != nil {
		res.Err = err
		e.activity.Error("Failed to load invoices: %v", err)
		return res
	}
	for _, invErr := range eval.Invalid {
		e.activity.Error("Invoice %s excluded: %v", invErr.InvoiceID, invErr.Err)
	}
	if len(eval.Candidates) == 0 {
		log.Debug("No invoices eligible for notification")
		return res
	}
	log.WithField("candidates", len(eval.Candidates)).Info("Dispatching notifications")

	for i, c := range eval.Candidates {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		res.Processed++

		if e.dedup.WasNotifiedToday(c.Client.ID, today) {
			res.Skipped++
			log.WithFields(logrus.Fields{"client_id": c.Client.ID, "invoice_id": c.Invoice.ID}).Debug("Client already notified today, skipping")
			continue
		}

		if err := e.send(ctx, c); err != nil {
			res.Errors++
			e.activity.Error("Failed to send %s for invoice %s to %s: %v", c.Type, c.Invoice.ID, c.Client.Name, err)
		} else {
			e.dedup.MarkNotified(c.Client.ID, now)
			res.Sent++
			e.activity.Success("Sent %s for invoice %s to %s", describe(c), c.Invoice.ID, c.Client.Name)
		}

		if i < len(eval.Candidates)-1 {
			if err := e.wait(ctx, policy.InterMessageDelay); err != nil {
				res.Cancelled = true
				break
			}
		}
	}
	return res
}

func (e *CycleExecutor) evaluate(ctx context.Context, policy notification.Policy, today time.Time) (Evaluation, error) {
	invoices, err := e.repo.ListOpenInvoices(ctx)
	if err != nil {
		return Evaluation{}, fmt.Errorf("list open invoices: %w", err)
	}
	if len(invoices) == 0 {
		return Evaluation{}, nil
	}

	clientIDs := make([]string, 0, len(invoices))
	var subIDs []string
	seenClient := make(map[string]bool)
	seenSub := make(map[string]bool)
	for _, inv := range invoices {
		if !seenClient[inv.ClientID] {
			seenClient[inv.ClientID] = true
			clientIDs = append(clientIDs, inv.ClientID)
		}
		if inv.SubscriptionID.Valid && !seenSub[inv.SubscriptionID.String] {
			seenSub[inv.SubscriptionID.String] = true
			subIDs = append(subIDs, inv.SubscriptionID.String)
		}
	}

	clients, err := e.repo.ListClientsByIDs(ctx, clientIDs)
	if err != nil {
		return Evaluation{}, fmt.Errorf("list clients: %w", err)
	}
	subs := map[string]*billing.Subscription{}
	if len(subIDs) > 0 {
		subs, err = e.repo.ListSubscriptionsByIDs(ctx, subIDs)
		if err != nil {
			return Evaluation{}, fmt.Errorf("list subscriptions: %w", err)
		}
	}
	return Evaluate(policy, invoices, clients, subs, today), nil
}

// send shields the cycle from a misbehaving sender: a panic becomes an ordinary error.
// A dispatched message is never aborted: cancellation of ctx is only honoured between
// candidates, so the sender gets a context that keeps ctx's values but not its cancellation.
func (e *CycleExecutor) send(ctx context.Context, c notification.Candidate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()
	return e.sender.Send(context.WithoutCancel(ctx), c)
}

func describe(c notification.Candidate) string {
	if c.Type == notification.TypeOverdue {
		return fmt.Sprintf("overdue notice (day %d)", c.Tier)
	}
	return string(c.Type)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
